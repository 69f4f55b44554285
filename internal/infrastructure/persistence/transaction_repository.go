package persistence

import (
	"context"
	"errors"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransactionRepository implements lot.TransactionRepository using GORM.
// The table is append-only: the repository exposes no update, and deletion
// is limited to unwinding a failed admission saga.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a ledger entry by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*lot.Transaction, error) {
	var tx lot.Transaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByLotID returns a lot's entries ordered by occurrence then insertion
func (r *GormTransactionRepository) FindByLotID(ctx context.Context, lotID uuid.UUID) ([]*lot.Transaction, error) {
	var txs []*lot.Transaction
	if err := r.db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("occurred_at asc, created_at asc").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// List returns entries matching the filter with total count
func (r *GormTransactionRepository) List(ctx context.Context, filter lot.TransactionFilter) (*shared.Paginated[*lot.Transaction], error) {
	query := r.db.WithContext(ctx).Model(&lot.Transaction{})
	if filter.LotID != nil {
		query = query.Where("lot_id = ?", *filter.LotID)
	}
	if len(filter.Types) > 0 {
		query = query.Where("type IN ?", filter.Types)
	}
	if filter.ReferenceType != "" {
		query = query.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.ReferenceID != nil {
		query = query.Where("reference_id = ?", *filter.ReferenceID)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var txs []*lot.Transaction
	if err := applyPagination(query, filter.Filter, TransactionSortFields).Find(&txs).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(txs, total, filter.Page, filter.PageSize)
	return &page, nil
}

// SumByLotID recomputes a lot balance from the ledger alone
func (r *GormTransactionRepository) SumByLotID(ctx context.Context, lotID uuid.UUID) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).
		Model(&lot.Transaction{}).
		Where("lot_id = ?", lotID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

// Insert appends a new ledger entry
func (r *GormTransactionRepository) Insert(ctx context.Context, tx *lot.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// DeleteByLotID removes all entries of a lot. Used only when an admission
// saga unwinds; lot_transactions.lot_id references inventory_lots, so the
// entries must go before the lot row does.
func (r *GormTransactionRepository) DeleteByLotID(ctx context.Context, lotID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Delete(&lot.Transaction{}).Error
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ lot.TransactionRepository = (*GormTransactionRepository)(nil)
