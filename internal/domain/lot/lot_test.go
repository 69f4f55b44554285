package lot

import (
	"errors"
	"testing"
	"time"

	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLot(t *testing.T) *InventoryLot {
	t.Helper()
	l, err := NewInventoryLot(
		uuid.New(), uuid.New(), uuid.New(),
		100,
		time.Now(),
		"MAN-2026-001",
		decimal.NewFromFloat(2500.50),
		uuid.New(),
	)
	require.NoError(t, err)
	l.ClearDomainEvents()
	return l
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected a domain error, got %v", err)
	return de.Code
}

func TestNewInventoryLot(t *testing.T) {
	t.Run("creates pending lot with zero balance", func(t *testing.T) {
		creator := uuid.New()
		l, err := NewInventoryLot(
			uuid.New(), uuid.New(), uuid.New(),
			100, time.Now(), "MAN-001", decimal.NewFromInt(1000), creator,
		)

		require.NoError(t, err)
		assert.Equal(t, LotStatusPending, l.Status)
		assert.Equal(t, int64(0), l.CurrentQuantity)
		assert.Equal(t, int64(100), l.OriginalQuantity)
		assert.Equal(t, creator, l.CreatedBy)
		assert.False(t, l.Voided)
		assert.True(t, l.Active)

		events := l.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeLotCreated, events[0].EventType())
	})

	t.Run("rejects non-positive original quantity", func(t *testing.T) {
		_, err := NewInventoryLot(
			uuid.New(), uuid.New(), uuid.New(),
			0, time.Now(), "MAN-001", decimal.NewFromInt(1000), uuid.New(),
		)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))

		_, err = NewInventoryLot(
			uuid.New(), uuid.New(), uuid.New(),
			-5, time.Now(), "MAN-001", decimal.NewFromInt(1000), uuid.New(),
		)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("rejects empty manifest number", func(t *testing.T) {
		_, err := NewInventoryLot(
			uuid.New(), uuid.New(), uuid.New(),
			100, time.Now(), "", decimal.NewFromInt(1000), uuid.New(),
		)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("rejects negative total value", func(t *testing.T) {
		_, err := NewInventoryLot(
			uuid.New(), uuid.New(), uuid.New(),
			100, time.Now(), "MAN-001", decimal.NewFromInt(-1), uuid.New(),
		)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("rejects nil references", func(t *testing.T) {
		_, err := NewInventoryLot(
			uuid.Nil, uuid.New(), uuid.New(),
			100, time.Now(), "MAN-001", decimal.NewFromInt(1000), uuid.New(),
		)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})
}

func TestInventoryLot_ApplyQuantityChange(t *testing.T) {
	t.Run("first admission moves pending lot into stock", func(t *testing.T) {
		l := newTestLot(t)

		err := l.ApplyQuantityChange(100, uuid.New())

		require.NoError(t, err)
		assert.Equal(t, int64(100), l.CurrentQuantity)
		assert.Equal(t, LotStatusInStock, l.Status)

		events := l.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeLotQuantityChanged, events[0].EventType())
		assert.Equal(t, EventTypeLotStatusChanged, events[1].EventType())
	})

	t.Run("withdrawal to zero depletes the lot", func(t *testing.T) {
		l := newTestLot(t)
		require.NoError(t, l.ApplyQuantityChange(100, uuid.New()))
		l.ClearDomainEvents()

		err := l.ApplyQuantityChange(-100, uuid.New())

		require.NoError(t, err)
		assert.Equal(t, int64(0), l.CurrentQuantity)
		assert.Equal(t, LotStatusDepleted, l.Status)

		var types []string
		for _, e := range l.GetDomainEvents() {
			types = append(types, e.EventType())
		}
		assert.Equal(t, []string{
			EventTypeLotQuantityChanged,
			EventTypeLotStatusChanged,
			EventTypeLotDepleted,
		}, types)
	})

	t.Run("rejects withdrawal beyond balance", func(t *testing.T) {
		l := newTestLot(t)
		require.NoError(t, l.ApplyQuantityChange(50, uuid.New()))

		err := l.ApplyQuantityChange(-51, uuid.New())

		assert.Equal(t, "INSUFFICIENT_QUANTITY", domainCode(t, err))
		assert.Equal(t, int64(50), l.CurrentQuantity)
		assert.Equal(t, LotStatusInStock, l.Status)
	})

	t.Run("rejects zero delta", func(t *testing.T) {
		l := newTestLot(t)
		err := l.ApplyQuantityChange(0, uuid.New())
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("positive adjustment revives a depleted lot", func(t *testing.T) {
		l := newTestLot(t)
		require.NoError(t, l.ApplyQuantityChange(10, uuid.New()))
		require.NoError(t, l.ApplyQuantityChange(-10, uuid.New()))
		require.Equal(t, LotStatusDepleted, l.Status)

		err := l.ApplyQuantityChange(3, uuid.New())

		require.NoError(t, err)
		assert.Equal(t, LotStatusInStock, l.Status)
		assert.Equal(t, int64(3), l.CurrentQuantity)
	})

	t.Run("voided lot accepts no further movements", func(t *testing.T) {
		l := newTestLot(t)
		require.NoError(t, l.ApplyQuantityChange(10, uuid.New()))
		_, err := l.Void("damaged shipment", uuid.New())
		require.NoError(t, err)

		err = l.ApplyQuantityChange(5, uuid.New())
		assert.Equal(t, "INVALID_STATE_TRANSITION", domainCode(t, err))
	})

	t.Run("increments version per movement", func(t *testing.T) {
		l := newTestLot(t)
		v := l.Version

		require.NoError(t, l.ApplyQuantityChange(10, uuid.New()))
		require.NoError(t, l.ApplyQuantityChange(-4, uuid.New()))

		assert.Equal(t, v+2, l.Version)
	})
}

func TestInventoryLot_Hold(t *testing.T) {
	t.Run("hold remembers prior status and release restores it", func(t *testing.T) {
		l := newTestLot(t)
		require.NoError(t, l.ApplyQuantityChange(100, uuid.New()))
		require.Equal(t, LotStatusInStock, l.Status)

		require.NoError(t, l.PlaceHold("customs audit", uuid.New()))
		assert.Equal(t, LotStatusOnHold, l.Status)
		require.NotNil(t, l.PriorStatus)
		assert.Equal(t, LotStatusInStock, *l.PriorStatus)

		require.NoError(t, l.ReleaseHold(uuid.New()))
		assert.Equal(t, LotStatusInStock, l.Status)
		assert.Nil(t, l.PriorStatus)
	})

	t.Run("hold on pending lot releases back to pending", func(t *testing.T) {
		l := newTestLot(t)

		require.NoError(t, l.PlaceHold("document check", uuid.New()))
		require.NoError(t, l.ReleaseHold(uuid.New()))

		assert.Equal(t, LotStatusPending, l.Status)
	})

	t.Run("release over an emptied balance lands on depleted", func(t *testing.T) {
		l := newTestLot(t)
		require.NoError(t, l.ApplyQuantityChange(20, uuid.New()))
		require.NoError(t, l.PlaceHold("audit", uuid.New()))
		// Adjustment while held removed the remaining stock
		require.NoError(t, l.ApplyQuantityChange(-20, uuid.New()))
		require.Equal(t, LotStatusDepleted, l.Status)
	})

	t.Run("rejects double hold", func(t *testing.T) {
		l := newTestLot(t)
		require.NoError(t, l.PlaceHold("audit", uuid.New()))

		err := l.PlaceHold("another audit", uuid.New())
		assert.Equal(t, "INVALID_STATE_TRANSITION", domainCode(t, err))
	})

	t.Run("rejects hold without reason", func(t *testing.T) {
		l := newTestLot(t)
		err := l.PlaceHold("", uuid.New())
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("rejects release when not on hold", func(t *testing.T) {
		l := newTestLot(t)
		err := l.ReleaseHold(uuid.New())
		assert.Equal(t, "INVALID_STATE_TRANSITION", domainCode(t, err))
	})
}

func TestInventoryLot_Void(t *testing.T) {
	t.Run("void zeroes balance and returns compensation", func(t *testing.T) {
		l := newTestLot(t)
		require.NoError(t, l.ApplyQuantityChange(60, uuid.New()))
		l.ClearDomainEvents()

		comp, err := l.Void("mis-filed manifest", uuid.New())

		require.NoError(t, err)
		assert.Equal(t, int64(-60), comp)
		assert.Equal(t, int64(0), l.CurrentQuantity)
		assert.Equal(t, LotStatusVoided, l.Status)
		assert.True(t, l.Voided)
		assert.False(t, l.Active)
		assert.Equal(t, "mis-filed manifest", l.VoidReason)

		var types []string
		for _, e := range l.GetDomainEvents() {
			types = append(types, e.EventType())
		}
		assert.Equal(t, []string{EventTypeLotStatusChanged, EventTypeLotVoided}, types)
	})

	t.Run("void of empty lot compensates zero", func(t *testing.T) {
		l := newTestLot(t)

		comp, err := l.Void("never arrived", uuid.New())

		require.NoError(t, err)
		assert.Equal(t, int64(0), comp)
		assert.Equal(t, LotStatusVoided, l.Status)
	})

	t.Run("rejects double void", func(t *testing.T) {
		l := newTestLot(t)
		_, err := l.Void("first", uuid.New())
		require.NoError(t, err)

		_, err = l.Void("second", uuid.New())
		assert.Equal(t, "INVALID_STATE_TRANSITION", domainCode(t, err))
	})

	t.Run("rejects void without reason", func(t *testing.T) {
		l := newTestLot(t)
		_, err := l.Void("", uuid.New())
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})
}

func TestInventoryLot_CanWithdraw(t *testing.T) {
	l := newTestLot(t)
	require.NoError(t, l.ApplyQuantityChange(50, uuid.New()))

	assert.True(t, l.CanWithdraw(50))
	assert.False(t, l.CanWithdraw(51))

	require.NoError(t, l.PlaceHold("audit", uuid.New()))
	assert.False(t, l.CanWithdraw(1), "held lots must not be drawable")
}

func TestInventoryLot_IsLowStock(t *testing.T) {
	l := newTestLot(t)
	require.NoError(t, l.ApplyQuantityChange(100, uuid.New()))

	assert.False(t, l.IsLowStock(10))

	require.NoError(t, l.ApplyQuantityChange(-95, uuid.New()))
	assert.True(t, l.IsLowStock(10))

	require.NoError(t, l.ApplyQuantityChange(-5, uuid.New()))
	assert.False(t, l.IsLowStock(10), "depleted lots are not low stock")

	assert.False(t, newTestLot(t).IsLowStock(10), "pending lots are not low stock")
}

func TestInventoryLot_RemainingValue(t *testing.T) {
	l, err := NewInventoryLot(
		uuid.New(), uuid.New(), uuid.New(),
		100, time.Now(), "MAN-001", decimal.NewFromInt(1000), uuid.New(),
	)
	require.NoError(t, err)
	require.NoError(t, l.ApplyQuantityChange(100, uuid.New()))

	assert.True(t, decimal.NewFromInt(1000).Equal(l.RemainingValue()))

	require.NoError(t, l.ApplyQuantityChange(-25, uuid.New()))
	assert.True(t, decimal.NewFromInt(750).Equal(l.RemainingValue()))

	require.NoError(t, l.ApplyQuantityChange(-75, uuid.New()))
	assert.True(t, decimal.Zero.Equal(l.RemainingValue()))
}

func TestLotStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to LotStatus
		allowed  bool
	}{
		{LotStatusPending, LotStatusInStock, true},
		{LotStatusPending, LotStatusOnHold, true},
		{LotStatusPending, LotStatusVoided, true},
		{LotStatusPending, LotStatusDepleted, false},
		{LotStatusInStock, LotStatusDepleted, true},
		{LotStatusInStock, LotStatusOnHold, true},
		{LotStatusInStock, LotStatusPending, false},
		{LotStatusOnHold, LotStatusInStock, true},
		{LotStatusOnHold, LotStatusPending, true},
		{LotStatusOnHold, LotStatusDepleted, true},
		{LotStatusDepleted, LotStatusInStock, true},
		{LotStatusDepleted, LotStatusVoided, true},
		{LotStatusVoided, LotStatusInStock, false},
		{LotStatusVoided, LotStatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}
