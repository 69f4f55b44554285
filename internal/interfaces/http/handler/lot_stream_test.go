package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/infrastructure/event"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStreamFixtureLot(t *testing.T, customerID uuid.UUID) *lot.InventoryLot {
	t.Helper()
	l, err := lot.NewInventoryLot(
		uuid.New(), customerID, uuid.New(),
		50,
		time.Now(),
		"MAN-2026-0002",
		decimal.NewFromInt(1000),
		uuid.New(),
	)
	require.NoError(t, err)
	return l
}

// registerStreamClient wires a fake client directly into the handler's
// registry, bypassing the HTTP layer
func registerStreamClient(h *LotStreamHandler, customerID uuid.UUID) *SSEClient {
	client := &SSEClient{
		ID:         uuid.NewString(),
		UserID:     uuid.NewString(),
		CustomerID: customerID,
		Chan:       make(chan SSEMessage, 10),
		Done:       make(chan struct{}),
	}
	h.clients.Store(client.ID, client)
	return client
}

func TestLotStreamHandlerStartStop(t *testing.T) {
	bus := event.NewInMemoryEventBus(zap.NewNop())
	h := NewLotStreamHandler(bus, WithStreamHeartbeat(time.Hour))

	require.NoError(t, h.Start())
	assert.Error(t, h.Start(), "second start must fail")

	h.Stop()
}

func TestLotStreamHandlerBroadcastsLotEvents(t *testing.T) {
	bus := event.NewInMemoryEventBus(zap.NewNop())
	h := NewLotStreamHandler(bus, WithStreamHeartbeat(time.Hour))
	require.NoError(t, h.Start())
	defer h.Stop()

	customerID := uuid.New()
	operator := registerStreamClient(h, uuid.Nil)
	owner := registerStreamClient(h, customerID)
	stranger := registerStreamClient(h, uuid.New())

	l := newStreamFixtureLot(t, customerID)
	created := lot.NewLotCreatedEvent(l)

	require.NoError(t, bus.Publish(context.Background(), created))

	// Synchronous dispatch: messages are queued before Publish returns
	select {
	case msg := <-operator.Chan:
		assert.Equal(t, lot.EventTypeLotCreated, msg.Event)
		assert.Contains(t, msg.Data, customerID.String())
	default:
		t.Fatal("operator client received no message")
	}

	select {
	case msg := <-owner.Chan:
		assert.Equal(t, lot.EventTypeLotCreated, msg.Event)
	default:
		t.Fatal("owning customer client received no message")
	}

	select {
	case <-stranger.Chan:
		t.Fatal("other customer's client must not receive the event")
	default:
	}
}

func TestLotStreamHandlerPreservesPerLotOrder(t *testing.T) {
	bus := event.NewInMemoryEventBus(zap.NewNop())
	h := NewLotStreamHandler(bus, WithStreamHeartbeat(time.Hour))
	require.NoError(t, h.Start())
	defer h.Stop()

	customerID := uuid.New()
	client := registerStreamClient(h, customerID)

	l := newStreamFixtureLot(t, customerID)
	events := []struct {
		publish func() error
		want    string
	}{
		{func() error { return bus.Publish(context.Background(), lot.NewLotCreatedEvent(l)) }, lot.EventTypeLotCreated},
		{func() error {
			return bus.Publish(context.Background(), lot.NewLotQuantityChangedEvent(l, 0, 50, 50))
		}, lot.EventTypeLotQuantityChanged},
		{func() error {
			return bus.Publish(context.Background(), lot.NewLotStatusChangedEvent(l, lot.LotStatusPending, lot.LotStatusInStock))
		}, lot.EventTypeLotStatusChanged},
	}

	for _, e := range events {
		require.NoError(t, e.publish())
	}

	for _, e := range events {
		select {
		case msg := <-client.Chan:
			assert.Equal(t, e.want, msg.Event)
		default:
			t.Fatalf("expected %s message", e.want)
		}
	}
}

func TestLotStreamHandlerSlowClientDropsNotBlocks(t *testing.T) {
	bus := event.NewInMemoryEventBus(zap.NewNop())
	h := NewLotStreamHandler(bus, WithStreamHeartbeat(time.Hour))
	require.NoError(t, h.Start())
	defer h.Stop()

	customerID := uuid.New()
	client := &SSEClient{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Chan:       make(chan SSEMessage), // unbuffered and never drained
		Done:       make(chan struct{}),
	}
	h.clients.Store(client.ID, client)

	l := newStreamFixtureLot(t, customerID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Publish(context.Background(), lot.NewLotCreatedEvent(l))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow SSE client")
	}
}

func TestLotStreamHandlerClientCount(t *testing.T) {
	bus := event.NewInMemoryEventBus(zap.NewNop())
	h := NewLotStreamHandler(bus)

	assert.Equal(t, 0, h.GetClientCount())

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registerStreamClient(h, uuid.Nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, h.GetClientCount())
}
