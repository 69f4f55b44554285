package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/ftzops/backend/internal/infrastructure/lock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLot(t *testing.T, store *memStore, quantity int64) *lot.InventoryLot {
	t.Helper()
	l, err := lot.NewInventoryLot(
		uuid.New(), uuid.New(), uuid.New(),
		1000, time.Now(), "MAN-SEED", decimal.NewFromInt(10000), uuid.New(),
	)
	require.NoError(t, err)
	l.ClearDomainEvents()
	if quantity > 0 {
		require.NoError(t, l.ApplyQuantityChange(quantity, uuid.New()))
		l.ClearDomainEvents()
	}
	store.lots[l.ID] = *l
	if quantity > 0 {
		tx, err := lot.NewTransaction(l.ID, lot.TransactionTypeAdmission, quantity, 0, uuid.New())
		require.NoError(t, err)
		store.entries = append(store.entries, *tx)
	}
	return l
}

func newTestService(store *memStore) (*LedgerService, *capturePublisher) {
	lotRepo := &memLotRepo{store: store}
	ledgerRepo := &memLedgerRepo{store: store}
	scope := NewNoOpTransactionScope(lotRepo, ledgerRepo, nil, nil)
	svc := NewLedgerService(scope, lock.NewLocalLotGuard(2*time.Second), lotRepo, ledgerRepo)
	pub := &capturePublisher{}
	svc.SetEventPublisher(pub)
	return svc, pub
}

func TestLedgerService_Append(t *testing.T) {
	t.Run("records movement with balance snapshots", func(t *testing.T) {
		store := newMemStore()
		l := seedLot(t, store, 100)
		svc, _ := newTestService(store)

		resp, err := svc.Append(context.Background(), AppendTransactionRequest{
			LotID:       l.ID,
			Type:        lot.TransactionTypeShipment,
			Quantity:    -30,
			PerformedBy: uuid.New(),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(70), resp.BalanceAfter)
		assert.Equal(t, int64(100), resp.BalanceBefore)

		saved := store.lots[l.ID]
		assert.Equal(t, int64(70), saved.CurrentQuantity)

		sum, err := svc.ComputeBalance(context.Background(), l.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(70), sum)
	})

	t.Run("publishes events in mutation order", func(t *testing.T) {
		store := newMemStore()
		l := seedLot(t, store, 10)
		svc, pub := newTestService(store)

		_, err := svc.Append(context.Background(), AppendTransactionRequest{
			LotID:       l.ID,
			Type:        lot.TransactionTypeShipment,
			Quantity:    -10,
			PerformedBy: uuid.New(),
		})
		require.NoError(t, err)

		var types []string
		for _, e := range pub.Events() {
			types = append(types, e.EventType())
		}
		assert.Equal(t, []string{
			lot.EventTypeLotQuantityChanged,
			lot.EventTypeLotStatusChanged,
			lot.EventTypeLotDepleted,
		}, types)
	})

	t.Run("rejects overdraw without touching the ledger", func(t *testing.T) {
		store := newMemStore()
		l := seedLot(t, store, 10)
		svc, pub := newTestService(store)

		_, err := svc.Append(context.Background(), AppendTransactionRequest{
			LotID:       l.ID,
			Type:        lot.TransactionTypeShipment,
			Quantity:    -11,
			PerformedBy: uuid.New(),
		})

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INSUFFICIENT_QUANTITY", de.Code)
		assert.Len(t, store.entries, 1, "only the seed admission may exist")
		assert.Equal(t, int64(10), store.lots[l.ID].CurrentQuantity)
		assert.Empty(t, pub.Events())
	})

	t.Run("requires a reason for adjustments and removals", func(t *testing.T) {
		store := newMemStore()
		l := seedLot(t, store, 10)
		svc, _ := newTestService(store)

		for _, typ := range []lot.TransactionType{lot.TransactionTypeAdjustment, lot.TransactionTypeRemoval} {
			_, err := svc.Append(context.Background(), AppendTransactionRequest{
				LotID:       l.ID,
				Type:        typ,
				Quantity:    -1,
				PerformedBy: uuid.New(),
			})
			var de *shared.DomainError
			require.True(t, errors.As(err, &de), "type %s", typ)
			assert.Equal(t, "VALIDATION_ERROR", de.Code)
		}
	})

	t.Run("unknown lot fails with not found", func(t *testing.T) {
		svc, _ := newTestService(newMemStore())

		_, err := svc.Append(context.Background(), AppendTransactionRequest{
			LotID:       uuid.New(),
			Type:        lot.TransactionTypeAdmission,
			Quantity:    10,
			PerformedBy: uuid.New(),
		})

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "NOT_FOUND", de.Code)
	})

	t.Run("held lot rejects guard-breaking writes within wait", func(t *testing.T) {
		store := newMemStore()
		l := seedLot(t, store, 10)
		lotRepo := &memLotRepo{store: store}
		ledgerRepo := &memLedgerRepo{store: store}
		scope := NewNoOpTransactionScope(lotRepo, ledgerRepo, nil, nil)
		guard := lock.NewLocalLotGuard(30 * time.Millisecond)
		svc := NewLedgerService(scope, guard, lotRepo, ledgerRepo)

		blocker, err := guard.Acquire(context.Background(), l.ID)
		require.NoError(t, err)
		defer blocker()

		_, err = svc.Append(context.Background(), AppendTransactionRequest{
			LotID:       l.ID,
			Type:        lot.TransactionTypeAdmission,
			Quantity:    5,
			PerformedBy: uuid.New(),
		})

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "LOCK_TIMEOUT", de.Code)
	})
}

func TestLedgerService_ConcurrentAppendsConverge(t *testing.T) {
	store := newMemStore()
	l := seedLot(t, store, 500)
	svc, pub := newTestService(store)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Append(context.Background(), AppendTransactionRequest{
				LotID:       l.ID,
				Type:        lot.TransactionTypeShipment,
				Quantity:    -2,
				PerformedBy: uuid.New(),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	saved := store.lots[l.ID]
	assert.Equal(t, int64(500-2*workers), saved.CurrentQuantity)

	sum, err := svc.ComputeBalance(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.CurrentQuantity, sum, "ledger and cached balance must agree")

	// Balance snapshots must chain without gaps when replayed in order
	history, err := svc.GetHistory(context.Background(), l.ID)
	require.NoError(t, err)
	require.Len(t, history, workers+1)

	// Quantity-changed events must walk the same chain
	var prev *int64
	for _, e := range pub.Events() {
		qc, ok := e.(*lot.LotQuantityChangedEvent)
		if !ok {
			continue
		}
		if prev != nil {
			assert.Equal(t, *prev, qc.BalanceBefore, "events out of order")
		}
		after := qc.BalanceAfter
		prev = &after
	}
	require.NotNil(t, prev)
	assert.Equal(t, saved.CurrentQuantity, *prev)
}

func TestLedgerService_GetHistory(t *testing.T) {
	store := newMemStore()
	l := seedLot(t, store, 100)
	svc, _ := newTestService(store)

	_, err := svc.Append(context.Background(), AppendTransactionRequest{
		LotID:       l.ID,
		Type:        lot.TransactionTypeShipment,
		Quantity:    -40,
		PerformedBy: uuid.New(),
	})
	require.NoError(t, err)

	history, err := svc.GetHistory(context.Background(), l.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(100), history[0].BalanceAfter)
	assert.Equal(t, int64(60), history[1].BalanceAfter)
}
