package ledger

import (
	"context"

	"github.com/ftzops/backend/internal/domain/lot"
)

// TransactionScope provides transactional access to the ledger repositories.
// Everything executed inside the scope commits or rolls back atomically, so
// a lot update and its ledger entry can never be persisted apart.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// LotRepo returns the lot repository scoped to the current transaction
	LotRepo() lot.LotRepository
	// LedgerRepo returns the transaction ledger repository scoped to the current transaction
	LedgerRepo() lot.TransactionRepository
	// PreadmissionRepo returns the preadmission repository scoped to the current transaction
	PreadmissionRepo() lot.PreadmissionRepository
	// PreshipmentRepo returns the preshipment repository scoped to the current transaction
	PreshipmentRepo() lot.PreshipmentRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful in tests where atomicity is not under test.
type NoOpTransactionScope struct {
	lotRepo          lot.LotRepository
	ledgerRepo       lot.TransactionRepository
	preadmissionRepo lot.PreadmissionRepository
	preshipmentRepo  lot.PreshipmentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	lotRepo lot.LotRepository,
	ledgerRepo lot.TransactionRepository,
	preadmissionRepo lot.PreadmissionRepository,
	preshipmentRepo lot.PreshipmentRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		lotRepo:          lotRepo,
		ledgerRepo:       ledgerRepo,
		preadmissionRepo: preadmissionRepo,
		preshipmentRepo:  preshipmentRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LotRepo returns the lot repository.
func (s *NoOpTransactionScope) LotRepo() lot.LotRepository {
	return s.lotRepo
}

// LedgerRepo returns the transaction ledger repository.
func (s *NoOpTransactionScope) LedgerRepo() lot.TransactionRepository {
	return s.ledgerRepo
}

// PreadmissionRepo returns the preadmission repository.
func (s *NoOpTransactionScope) PreadmissionRepo() lot.PreadmissionRepository {
	return s.preadmissionRepo
}

// PreshipmentRepo returns the preshipment repository.
func (s *NoOpTransactionScope) PreshipmentRepo() lot.PreshipmentRepository {
	return s.preshipmentRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
