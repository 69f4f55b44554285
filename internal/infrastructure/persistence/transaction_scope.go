package persistence

import (
	"context"

	appledger "github.com/ftzops/backend/internal/application/ledger"
	"github.com/ftzops/backend/internal/domain/lot"
	"gorm.io/gorm"
)

// GormLedgerTransactionScope implements ledger.TransactionScope on top of
// GORM's transaction support. Repositories handed to the callback are bound
// to the same *gorm.DB transaction, so all writes commit or roll back
// together.
type GormLedgerTransactionScope struct {
	db *gorm.DB
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope
func NewGormLedgerTransactionScope(db *gorm.DB) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db}
}

// Execute runs fn inside a database transaction
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories binds the ledger repositories to one
// in-flight transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) LotRepo() lot.LotRepository {
	return NewGormLotRepository(r.tx)
}

func (r *gormTransactionalRepositories) LedgerRepo() lot.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) PreadmissionRepo() lot.PreadmissionRepository {
	return NewGormPreadmissionRepository(r.tx)
}

func (r *gormTransactionalRepositories) PreshipmentRepo() lot.PreshipmentRepository {
	return NewGormPreshipmentRepository(r.tx)
}

// Ensure the scope and its repositories satisfy the application contracts
var (
	_ appledger.TransactionScope          = (*GormLedgerTransactionScope)(nil)
	_ appledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
