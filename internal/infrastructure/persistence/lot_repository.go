package persistence

import (
	"context"
	"errors"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLotRepository implements lot.LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// FindByID finds a lot by its ID
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*lot.InventoryLot, error) {
	var l lot.InventoryLot
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// FindByManifest finds a customer's lots by manifest number
func (r *GormLotRepository) FindByManifest(ctx context.Context, customerID uuid.UUID, manifestNumber string) ([]*lot.InventoryLot, error) {
	var lots []*lot.InventoryLot
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND manifest_number = ?", customerID, manifestNumber).
		Order("created_at asc").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// List returns lots matching the filter with total count
func (r *GormLotRepository) List(ctx context.Context, filter lot.LotFilter) (*shared.Paginated[*lot.InventoryLot], error) {
	query := r.db.WithContext(ctx).Model(&lot.InventoryLot{})
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var lots []*lot.InventoryLot
	if err := applyPagination(query, filter.Filter, LotSortFields).Find(&lots).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(lots, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Save persists a lot (create or full update)
func (r *GormLotRepository) Save(ctx context.Context, l *lot.InventoryLot) error {
	return r.db.WithContext(ctx).Save(l).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormLotRepository) SaveWithLock(ctx context.Context, l *lot.InventoryLot) error {
	result := r.db.WithContext(ctx).
		Model(l).
		Where("id = ? AND version = ?", l.ID, l.Version-1).
		Updates(map[string]interface{}{
			"status":           l.Status,
			"prior_status":     l.PriorStatus,
			"current_quantity": l.CurrentQuantity,
			"voided":           l.Voided,
			"void_reason":      l.VoidReason,
			"active":           l.Active,
			"updated_by":       l.UpdatedBy,
			"version":          l.Version,
			"updated_at":       l.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENCY_CONFLICT", "Lot was modified by another transaction")
	}
	return nil
}

// Delete removes a lot row. Only admission compensation may call this;
// established lots are voided, never deleted.
func (r *GormLotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&lot.InventoryLot{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormLotRepository) applyFilter(query *gorm.DB, filter lot.LotFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.PartID != nil {
		query = query.Where("part_id = ?", *filter.PartID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Voided != nil {
		query = query.Where("voided = ?", *filter.Voided)
	}
	if filter.Manifest != "" {
		query = query.Where("manifest_number = ?", filter.Manifest)
	}
	return query
}

// Ensure GormLotRepository implements LotRepository
var _ lot.LotRepository = (*GormLotRepository)(nil)
