package lot

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPreshipment(t *testing.T) *Preshipment {
	t.Helper()
	p, err := NewPreshipment(uuid.New(), "SHP-2026-001", "Long Beach, CA", uuid.New())
	require.NoError(t, err)
	return p
}

func TestNewPreshipment(t *testing.T) {
	t.Run("creates draft with no items", func(t *testing.T) {
		p := newTestPreshipment(t)

		assert.Equal(t, PreshipmentStatusDraft, p.Status)
		assert.Empty(t, p.Items)
		assert.Equal(t, int64(0), p.TotalQuantity())
	})

	t.Run("rejects empty shipment number", func(t *testing.T) {
		_, err := NewPreshipment(uuid.New(), "", "Long Beach, CA", uuid.New())
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})
}

func TestPreshipment_AddItem(t *testing.T) {
	t.Run("accumulates items and totals", func(t *testing.T) {
		p := newTestPreshipment(t)

		require.NoError(t, p.AddItem(uuid.New(), 30))
		require.NoError(t, p.AddItem(uuid.New(), 20))

		assert.Len(t, p.Items, 2)
		assert.Equal(t, int64(50), p.TotalQuantity())
	})

	t.Run("rejects duplicate lot", func(t *testing.T) {
		p := newTestPreshipment(t)
		lotID := uuid.New()
		require.NoError(t, p.AddItem(lotID, 30))

		err := p.AddItem(lotID, 10)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		p := newTestPreshipment(t)
		err := p.AddItem(uuid.New(), 0)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("rejects items after allocation", func(t *testing.T) {
		p := newTestPreshipment(t)
		require.NoError(t, p.AddItem(uuid.New(), 30))
		require.NoError(t, p.MarkAllocated(uuid.New()))

		err := p.AddItem(uuid.New(), 10)
		assert.Equal(t, "INVALID_STATE_TRANSITION", domainCode(t, err))
	})
}

func TestPreshipment_Lifecycle(t *testing.T) {
	t.Run("draft to allocated to shipped", func(t *testing.T) {
		p := newTestPreshipment(t)
		require.NoError(t, p.AddItem(uuid.New(), 30))

		require.NoError(t, p.MarkAllocated(uuid.New()))
		assert.Equal(t, PreshipmentStatusAllocated, p.Status)
		assert.NotNil(t, p.AllocatedAt)

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypePreshipmentAllocated, events[0].EventType())

		require.NoError(t, p.MarkShipped(uuid.New()))
		assert.Equal(t, PreshipmentStatusShipped, p.Status)
		assert.NotNil(t, p.ShippedAt)
	})

	t.Run("empty draft cannot be allocated", func(t *testing.T) {
		p := newTestPreshipment(t)
		err := p.MarkAllocated(uuid.New())
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("draft cannot be shipped directly", func(t *testing.T) {
		p := newTestPreshipment(t)
		require.NoError(t, p.AddItem(uuid.New(), 30))

		err := p.MarkShipped(uuid.New())
		assert.Equal(t, "INVALID_STATE_TRANSITION", domainCode(t, err))
	})

	t.Run("allocated draft cannot be cancelled", func(t *testing.T) {
		p := newTestPreshipment(t)
		require.NoError(t, p.AddItem(uuid.New(), 30))
		require.NoError(t, p.MarkAllocated(uuid.New()))

		err := p.Cancel(uuid.New())
		assert.Equal(t, "INVALID_STATE_TRANSITION", domainCode(t, err))
	})
}
