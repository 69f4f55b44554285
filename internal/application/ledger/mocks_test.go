package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockLotRepository is a testify mock for lot.LotRepository
type MockLotRepository struct {
	mock.Mock
}

func (m *MockLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*lot.InventoryLot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lot.InventoryLot), args.Error(1)
}

func (m *MockLotRepository) FindByManifest(ctx context.Context, customerID uuid.UUID, manifestNumber string) ([]*lot.InventoryLot, error) {
	args := m.Called(ctx, customerID, manifestNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lot.InventoryLot), args.Error(1)
}

func (m *MockLotRepository) List(ctx context.Context, filter lot.LotFilter) (*shared.Paginated[*lot.InventoryLot], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*lot.InventoryLot]), args.Error(1)
}

func (m *MockLotRepository) Save(ctx context.Context, l *lot.InventoryLot) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockLotRepository) SaveWithLock(ctx context.Context, l *lot.InventoryLot) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockLotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockTransactionRepository is a testify mock for lot.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*lot.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lot.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByLotID(ctx context.Context, lotID uuid.UUID) ([]*lot.Transaction, error) {
	args := m.Called(ctx, lotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lot.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, filter lot.TransactionFilter) (*shared.Paginated[*lot.Transaction], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*lot.Transaction]), args.Error(1)
}

func (m *MockTransactionRepository) SumByLotID(ctx context.Context, lotID uuid.UUID) (int64, error) {
	args := m.Called(ctx, lotID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) Insert(ctx context.Context, tx *lot.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockTransactionRepository) DeleteByLotID(ctx context.Context, lotID uuid.UUID) error {
	return m.Called(ctx, lotID).Error(0)
}

// capturePublisher records every published event in order
type capturePublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) Events() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.DomainEvent, len(p.events))
	copy(out, p.events)
	return out
}

// memStore is a thread-safe in-memory backing store shared by the fake
// repositories. It mimics the persistence semantics the service relies on:
// SaveWithLock fails on version mismatch and FindByID returns a copy.
type memStore struct {
	mu      sync.Mutex
	lots    map[uuid.UUID]lot.InventoryLot
	entries []lot.Transaction
}

func newMemStore() *memStore {
	return &memStore{lots: make(map[uuid.UUID]lot.InventoryLot)}
}

type memLotRepo struct{ store *memStore }

func (r *memLotRepo) FindByID(_ context.Context, id uuid.UUID) (*lot.InventoryLot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	l, ok := r.store.lots[id]
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND", "Lot not found")
	}
	cp := l
	return &cp, nil
}

func (r *memLotRepo) FindByManifest(_ context.Context, customerID uuid.UUID, manifest string) ([]*lot.InventoryLot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*lot.InventoryLot
	for _, l := range r.store.lots {
		if l.CustomerID == customerID && l.ManifestNumber == manifest {
			cp := l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memLotRepo) List(_ context.Context, _ lot.LotFilter) (*shared.Paginated[*lot.InventoryLot], error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	items := make([]*lot.InventoryLot, 0, len(r.store.lots))
	for _, l := range r.store.lots {
		cp := l
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID.String() < items[j].ID.String() })
	page := shared.NewPaginated(items, int64(len(items)), 1, max(len(items), 1))
	return &page, nil
}

func (r *memLotRepo) Save(_ context.Context, l *lot.InventoryLot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.lots[l.ID] = *l
	return nil
}

func (r *memLotRepo) SaveWithLock(_ context.Context, l *lot.InventoryLot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.lots[l.ID]
	if !ok {
		return shared.NewDomainError("NOT_FOUND", "Lot not found")
	}
	// The aggregate increments its version before saving, so the stored
	// row must be exactly one behind.
	if stored.Version != l.Version-1 {
		return shared.NewDomainError("CONCURRENCY_CONFLICT", "Lot was modified by another process")
	}
	r.store.lots[l.ID] = *l
	return nil
}

func (r *memLotRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.lots, id)
	return nil
}

type memLedgerRepo struct{ store *memStore }

func (r *memLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*lot.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.entries {
		if r.store.entries[i].ID == id {
			cp := r.store.entries[i]
			return &cp, nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "Transaction not found")
}

func (r *memLedgerRepo) FindByLotID(_ context.Context, lotID uuid.UUID) ([]*lot.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*lot.Transaction
	for i := range r.store.entries {
		if r.store.entries[i].LotID == lotID {
			cp := r.store.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) List(_ context.Context, _ lot.TransactionFilter) (*shared.Paginated[*lot.Transaction], error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	items := make([]*lot.Transaction, 0, len(r.store.entries))
	for i := range r.store.entries {
		cp := r.store.entries[i]
		items = append(items, &cp)
	}
	page := shared.NewPaginated(items, int64(len(items)), 1, max(len(items), 1))
	return &page, nil
}

func (r *memLedgerRepo) SumByLotID(_ context.Context, lotID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var sum int64
	for i := range r.store.entries {
		if r.store.entries[i].LotID == lotID {
			sum += r.store.entries[i].Quantity
		}
	}
	return sum, nil
}

func (r *memLedgerRepo) Insert(_ context.Context, tx *lot.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.entries = append(r.store.entries, *tx)
	return nil
}

func (r *memLedgerRepo) DeleteByLotID(_ context.Context, lotID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.entries[:0]
	for i := range r.store.entries {
		if r.store.entries[i].LotID != lotID {
			kept = append(kept, r.store.entries[i])
		}
	}
	r.store.entries = kept
	return nil
}
