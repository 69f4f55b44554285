package admission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ftzops/backend/internal/application/ledger"
	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/lot/acl"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is a thread-safe in-memory stand-in for the persistence layer
type fakeStore struct {
	mu            sync.Mutex
	lots          map[uuid.UUID]lot.InventoryLot
	entries       []lot.Transaction
	preadmissions map[uuid.UUID]lot.Preadmission

	// failPreadmissionSaves makes the next N SaveWithLock calls fail
	// with the given error
	failPreadmissionSaves int
	preadmissionSaveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lots:          make(map[uuid.UUID]lot.InventoryLot),
		preadmissions: make(map[uuid.UUID]lot.Preadmission),
	}
}

type fakeLotRepo struct{ store *fakeStore }

func (r *fakeLotRepo) FindByID(_ context.Context, id uuid.UUID) (*lot.InventoryLot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	l, ok := r.store.lots[id]
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND", "Lot not found")
	}
	cp := l
	return &cp, nil
}

func (r *fakeLotRepo) FindByManifest(_ context.Context, _ uuid.UUID, _ string) ([]*lot.InventoryLot, error) {
	return nil, nil
}

func (r *fakeLotRepo) List(_ context.Context, _ lot.LotFilter) (*shared.Paginated[*lot.InventoryLot], error) {
	return nil, nil
}

func (r *fakeLotRepo) Save(_ context.Context, l *lot.InventoryLot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.lots[l.ID] = *l
	return nil
}

func (r *fakeLotRepo) SaveWithLock(_ context.Context, l *lot.InventoryLot) error {
	return r.Save(context.Background(), l)
}

// Delete enforces the schema's foreign key: a lot with ledger entries
// still referencing it cannot be removed.
func (r *fakeLotRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.entries {
		if r.store.entries[i].LotID == id {
			return shared.NewDomainError("STORAGE_ERROR", "FOREIGN KEY constraint failed")
		}
	}
	delete(r.store.lots, id)
	return nil
}

type fakeLedgerRepo struct{ store *fakeStore }

func (r *fakeLedgerRepo) FindByID(_ context.Context, _ uuid.UUID) (*lot.Transaction, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeLedgerRepo) FindByLotID(_ context.Context, lotID uuid.UUID) ([]*lot.Transaction, error) {
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

func (r *fakeLedgerRepo) List(_ context.Context, _ lot.TransactionFilter) (*shared.Paginated[*lot.Transaction], error) {
	return nil, nil
}

func (r *fakeLedgerRepo) SumByLotID(_ context.Context, lotID uuid.UUID) (int64, error) {
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

func (r *fakeLedgerRepo) Insert(_ context.Context, tx *lot.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.entries = append(r.store.entries, *tx)
	return nil
}

func (r *fakeLedgerRepo) DeleteByLotID(_ context.Context, lotID uuid.UUID) error {
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

type fakePreadmissionRepo struct{ store *fakeStore }

func (r *fakePreadmissionRepo) FindByID(_ context.Context, id uuid.UUID) (*lot.Preadmission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.preadmissions[id]
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND", "Preadmission not found")
	}
	cp := p
	return &cp, nil
}

func (r *fakePreadmissionRepo) List(_ context.Context, _ lot.PreadmissionFilter) (*shared.Paginated[*lot.Preadmission], error) {
	return nil, nil
}

func (r *fakePreadmissionRepo) Save(_ context.Context, p *lot.Preadmission) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.preadmissions[p.ID] = *p
	return nil
}

func (r *fakePreadmissionRepo) SaveWithLock(_ context.Context, p *lot.Preadmission) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failPreadmissionSaves > 0 {
		r.store.failPreadmissionSaves--
		return r.store.preadmissionSaveErr
	}
	r.store.preadmissions[p.ID] = *p
	return nil
}

// fakeLookup serves every ID as an active reference unless listed as missing or inactive
type fakeLookup struct {
	missing  map[uuid.UUID]bool
	inactive map[uuid.UUID]bool
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{missing: map[uuid.UUID]bool{}, inactive: map[uuid.UUID]bool{}}
}

func (f *fakeLookup) FindByID(_ context.Context, id uuid.UUID) (*acl.CustomerRef, error) {
	if f.missing[id] {
		return nil, shared.ErrNotFound
	}
	return &acl.CustomerRef{ID: id, Active: !f.inactive[id]}, nil
}

type fakePartLookup struct{ *fakeLookup }

func (f fakePartLookup) FindByID(ctx context.Context, id uuid.UUID) (*acl.PartRef, error) {
	ref, err := f.fakeLookup.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &acl.PartRef{ID: ref.ID, Active: ref.Active}, nil
}

type fakeLocationLookup struct{ *fakeLookup }

func (f fakeLocationLookup) FindByID(ctx context.Context, id uuid.UUID) (*acl.LocationRef, error) {
	ref, err := f.fakeLookup.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &acl.LocationRef{ID: ref.ID, Active: ref.Active}, nil
}

type fixture struct {
	store     *fakeStore
	svc       *Service
	customers *fakeLookup
	parts     *fakeLookup
	locations *fakeLookup
}

func newFixture() *fixture {
	store := newFakeStore()
	scope := ledger.NewNoOpTransactionScope(
		&fakeLotRepo{store: store},
		&fakeLedgerRepo{store: store},
		&fakePreadmissionRepo{store: store},
		nil,
	)
	customers := newFakeLookup()
	parts := newFakeLookup()
	locations := newFakeLookup()
	svc := NewService(
		scope,
		&fakePreadmissionRepo{store: store},
		customers,
		fakePartLookup{parts},
		fakeLocationLookup{locations},
		zap.NewNop(),
	)
	return &fixture{store: store, svc: svc, customers: customers, parts: parts, locations: locations}
}

func (f *fixture) filePreadmission(t *testing.T, quantity int64) *lot.Preadmission {
	t.Helper()
	p, err := lot.NewPreadmission(
		uuid.New(), uuid.New(), uuid.New(),
		quantity, "MAN-2026-100", time.Now().Add(24*time.Hour),
		decimal.NewFromInt(1200), uuid.New(),
	)
	require.NoError(t, err)
	f.store.preadmissions[p.ID] = *p
	return p
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected domain error, got %v", err)
	assert.Equal(t, code, de.Code)
}

func TestService_Create(t *testing.T) {
	t.Run("files a pending preadmission", func(t *testing.T) {
		f := newFixture()

		resp, err := f.svc.Create(context.Background(), CreatePreadmissionRequest{
			CustomerID:        uuid.New(),
			PartID:            uuid.New(),
			StorageLocationID: uuid.New(),
			Quantity:          100,
			ManifestNumber:    "MAN-2026-200",
			ExpectedArrival:   time.Now().Add(72 * time.Hour),
			DeclaredValue:     decimal.NewFromInt(900),
			CreatedBy:         uuid.New(),
		})

		require.NoError(t, err)
		assert.Equal(t, "PENDING", resp.Status)
		assert.Len(t, f.store.preadmissions, 1)
	})

	t.Run("inactive part fails as reference error", func(t *testing.T) {
		f := newFixture()
		partID := uuid.New()
		f.parts.inactive[partID] = true

		_, err := f.svc.Create(context.Background(), CreatePreadmissionRequest{
			CustomerID:        uuid.New(),
			PartID:            partID,
			StorageLocationID: uuid.New(),
			Quantity:          100,
			ManifestNumber:    "MAN-2026-201",
			ExpectedArrival:   time.Now(),
			CreatedBy:         uuid.New(),
		})

		assertCode(t, err, "REFERENCE_ERROR")
		assert.Empty(t, f.store.preadmissions)
	})

	t.Run("missing customer fails as reference error", func(t *testing.T) {
		f := newFixture()
		customerID := uuid.New()
		f.customers.missing[customerID] = true

		_, err := f.svc.Create(context.Background(), CreatePreadmissionRequest{
			CustomerID:        customerID,
			PartID:            uuid.New(),
			StorageLocationID: uuid.New(),
			Quantity:          100,
			ManifestNumber:    "MAN-2026-202",
			ExpectedArrival:   time.Now(),
			CreatedBy:         uuid.New(),
		})

		assertCode(t, err, "REFERENCE_ERROR")
	})
}

func TestService_Process(t *testing.T) {
	t.Run("creates lot with opening ledger entry", func(t *testing.T) {
		f := newFixture()
		pre := f.filePreadmission(t, 100)
		actor := uuid.New()

		result, err := f.svc.Process(context.Background(), pre.ID, actor)

		require.NoError(t, err)
		assert.Equal(t, "PROCESSED", result.Preadmission.Status)
		assert.Equal(t, "IN_STOCK", result.Lot.Status)
		assert.Equal(t, int64(100), result.Lot.CurrentQuantity)
		assert.Equal(t, int64(0), result.Transaction.BalanceBefore)
		assert.Equal(t, int64(100), result.Transaction.BalanceAfter)
		assert.Equal(t, "PREADMISSION", result.Transaction.ReferenceType)
		require.NotNil(t, result.Transaction.ReferenceID)
		assert.Equal(t, pre.ID, *result.Transaction.ReferenceID)

		stored := f.store.preadmissions[pre.ID]
		require.NotNil(t, stored.ProcessedToLotID)
		assert.Equal(t, result.Lot.ID, *stored.ProcessedToLotID)
	})

	t.Run("second processing fails as already processed", func(t *testing.T) {
		f := newFixture()
		pre := f.filePreadmission(t, 100)

		_, err := f.svc.Process(context.Background(), pre.ID, uuid.New())
		require.NoError(t, err)

		_, err = f.svc.Process(context.Background(), pre.ID, uuid.New())
		assertCode(t, err, "ALREADY_PROCESSED")
		assert.Len(t, f.store.lots, 1, "no second lot may appear")
	})

	t.Run("cancelled filing cannot be processed", func(t *testing.T) {
		f := newFixture()
		pre := f.filePreadmission(t, 100)
		_, err := f.svc.Cancel(context.Background(), pre.ID, uuid.New())
		require.NoError(t, err)

		_, err = f.svc.Process(context.Background(), pre.ID, uuid.New())
		assertCode(t, err, "INVALID_STATE_TRANSITION")
	})

	t.Run("vanished part reference fails as reference error", func(t *testing.T) {
		f := newFixture()
		pre := f.filePreadmission(t, 100)
		f.parts.missing[pre.PartID] = true

		_, err := f.svc.Process(context.Background(), pre.ID, uuid.New())

		assertCode(t, err, "REFERENCE_ERROR")
		assert.Empty(t, f.store.lots)
	})

	t.Run("terminal link failure compensates the created lot", func(t *testing.T) {
		f := newFixture()
		pre := f.filePreadmission(t, 100)
		f.store.failPreadmissionSaves = 10
		f.store.preadmissionSaveErr = shared.NewDomainError("CONCURRENCY_CONFLICT", "version mismatch")

		_, err := f.svc.Process(context.Background(), pre.ID, uuid.New())

		assertCode(t, err, "CONCURRENCY_CONFLICT")
		assert.Empty(t, f.store.lots, "compensation must remove the orphaned lot")
		assert.Empty(t, f.store.entries, "compensation must remove the opening ledger entry")
		assert.Equal(t, lot.PreadmissionStatusPending, f.store.preadmissions[pre.ID].Status)
	})

	t.Run("transient link failure is retried and converges to one lot", func(t *testing.T) {
		f := newFixture()
		pre := f.filePreadmission(t, 100)
		f.store.failPreadmissionSaves = 1
		f.store.preadmissionSaveErr = shared.NewDomainError("STORAGE_ERROR", "connection reset")

		result, err := f.svc.Process(context.Background(), pre.ID, uuid.New())

		require.NoError(t, err)
		assert.Len(t, f.store.lots, 1, "the compensated lot must not survive the retry")
		assert.Len(t, f.store.entries, 1, "only the surviving lot's opening entry may remain")
		assert.Equal(t, "PROCESSED", result.Preadmission.Status)

		stored := f.store.preadmissions[pre.ID]
		require.NotNil(t, stored.ProcessedToLotID)
		_, ok := f.store.lots[*stored.ProcessedToLotID]
		assert.True(t, ok, "the filing must point at the surviving lot")
	})

	t.Run("unknown filing fails as not found", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Process(context.Background(), uuid.New(), uuid.New())
		assertCode(t, err, "NOT_FOUND")
	})
}
