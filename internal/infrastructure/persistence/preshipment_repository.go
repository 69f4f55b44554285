package persistence

import (
	"context"
	"errors"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPreshipmentRepository implements lot.PreshipmentRepository using GORM.
// Items are loaded with the aggregate and persisted through association
// handling on Save.
type GormPreshipmentRepository struct {
	db *gorm.DB
}

// NewGormPreshipmentRepository creates a new GormPreshipmentRepository
func NewGormPreshipmentRepository(db *gorm.DB) *GormPreshipmentRepository {
	return &GormPreshipmentRepository{db: db}
}

// FindByID finds a preshipment with its items
func (r *GormPreshipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*lot.Preshipment, error) {
	var p lot.Preshipment
	if err := r.db.WithContext(ctx).Preload("Items").First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns preshipments matching the filter with total count
func (r *GormPreshipmentRepository) List(ctx context.Context, filter lot.PreshipmentFilter) (*shared.Paginated[*lot.Preshipment], error) {
	query := r.db.WithContext(ctx).Model(&lot.Preshipment{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []*lot.Preshipment
	if err := applyPagination(query, filter.Filter, PreshipmentSortFields).Preload("Items").Find(&items).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Save persists a preshipment and its items
func (r *GormPreshipmentRepository) Save(ctx context.Context, p *lot.Preshipment) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(p).Error
}

// SaveWithLock saves the aggregate row with optimistic locking
func (r *GormPreshipmentRepository) SaveWithLock(ctx context.Context, p *lot.Preshipment) error {
	result := r.db.WithContext(ctx).
		Model(p).
		Where("id = ? AND version = ?", p.ID, p.Version-1).
		Updates(map[string]interface{}{
			"status":       p.Status,
			"allocated_at": p.AllocatedAt,
			"shipped_at":   p.ShippedAt,
			"updated_by":   p.UpdatedBy,
			"version":      p.Version,
			"updated_at":   p.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENCY_CONFLICT", "Preshipment was modified by another transaction")
	}
	return nil
}

// Ensure GormPreshipmentRepository implements PreshipmentRepository
var _ lot.PreshipmentRepository = (*GormPreshipmentRepository)(nil)
