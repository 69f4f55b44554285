package persistence

import (
	"strings"

	"github.com/ftzops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// applyPagination applies ordering and pagination from the common filter.
// The allowed set is the entity's sort field whitelist; unknown OrderBy
// values fall back to created_at instead of reaching the SQL.
func applyPagination(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	orderBy := ValidateSortField(filter.OrderBy, allowed, "created_at")
	orderDir := "ASC"
	if strings.ToLower(filter.OrderDir) == "desc" {
		orderDir = "DESC"
	}
	query = query.Order(orderBy + " " + orderDir)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}
