package persistence

import (
	"context"
	"errors"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPreadmissionRepository implements lot.PreadmissionRepository using GORM
type GormPreadmissionRepository struct {
	db *gorm.DB
}

// NewGormPreadmissionRepository creates a new GormPreadmissionRepository
func NewGormPreadmissionRepository(db *gorm.DB) *GormPreadmissionRepository {
	return &GormPreadmissionRepository{db: db}
}

// FindByID finds a preadmission by its ID
func (r *GormPreadmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*lot.Preadmission, error) {
	var p lot.Preadmission
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns preadmissions matching the filter with total count
func (r *GormPreadmissionRepository) List(ctx context.Context, filter lot.PreadmissionFilter) (*shared.Paginated[*lot.Preadmission], error) {
	query := r.db.WithContext(ctx).Model(&lot.Preadmission{})
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

	var items []*lot.Preadmission
	if err := applyPagination(query, filter.Filter, PreadmissionSortFields).Find(&items).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Save persists a preadmission (create or full update)
func (r *GormPreadmissionRepository) Save(ctx context.Context, p *lot.Preadmission) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormPreadmissionRepository) SaveWithLock(ctx context.Context, p *lot.Preadmission) error {
	result := r.db.WithContext(ctx).
		Model(p).
		Where("id = ? AND version = ?", p.ID, p.Version-1).
		Updates(map[string]interface{}{
			"status":              p.Status,
			"processed_to_lot_id": p.ProcessedToLotID,
			"processed_at":        p.ProcessedAt,
			"updated_by":          p.UpdatedBy,
			"version":             p.Version,
			"updated_at":          p.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENCY_CONFLICT", "Preadmission was modified by another transaction")
	}
	return nil
}

// Ensure GormPreadmissionRepository implements PreadmissionRepository
var _ lot.PreadmissionRepository = (*GormPreadmissionRepository)(nil)
