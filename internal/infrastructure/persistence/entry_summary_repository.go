package persistence

import (
	"context"
	"errors"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEntrySummaryRepository implements lot.EntrySummaryRepository using
// GORM. Entry summaries are produced by the filing pipeline; this side
// only reads them.
type GormEntrySummaryRepository struct {
	db *gorm.DB
}

// NewGormEntrySummaryRepository creates a new GormEntrySummaryRepository
func NewGormEntrySummaryRepository(db *gorm.DB) *GormEntrySummaryRepository {
	return &GormEntrySummaryRepository{db: db}
}

// FindByID finds an entry summary by its ID
func (r *GormEntrySummaryRepository) FindByID(ctx context.Context, id uuid.UUID) (*lot.EntrySummary, error) {
	var e lot.EntrySummary
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// FindByPreshipmentID returns the filings generated from one shipment
func (r *GormEntrySummaryRepository) FindByPreshipmentID(ctx context.Context, preshipmentID uuid.UUID) ([]*lot.EntrySummary, error) {
	var entries []*lot.EntrySummary
	if err := r.db.WithContext(ctx).
		Where("preshipment_id = ?", preshipmentID).
		Order("filed_at asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListByCustomer returns a customer's filings with total count
func (r *GormEntrySummaryRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[*lot.EntrySummary], error) {
	query := r.db.WithContext(ctx).Model(&lot.EntrySummary{}).Where("customer_id = ?", customerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var entries []*lot.EntrySummary
	if err := applyPagination(query, filter, EntrySummarySortFields).Find(&entries).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(entries, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Ensure GormEntrySummaryRepository implements EntrySummaryRepository
var _ lot.EntrySummaryRepository = (*GormEntrySummaryRepository)(nil)
