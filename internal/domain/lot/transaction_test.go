package lot

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	lotID := uuid.New()
	actor := uuid.New()

	t.Run("admission carries positive quantity and balance snapshot", func(t *testing.T) {
		tx, err := NewTransaction(lotID, TransactionTypeAdmission, 100, 0, actor)

		require.NoError(t, err)
		assert.Equal(t, int64(100), tx.Quantity)
		assert.Equal(t, int64(0), tx.BalanceBefore)
		assert.Equal(t, int64(100), tx.BalanceAfter)
		assert.Equal(t, actor, tx.PerformedBy)
		assert.False(t, tx.OccurredAt.IsZero())
	})

	t.Run("shipment must be negative", func(t *testing.T) {
		_, err := NewTransaction(lotID, TransactionTypeShipment, 10, 100, actor)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))

		tx, err := NewTransaction(lotID, TransactionTypeShipment, -10, 100, actor)
		require.NoError(t, err)
		assert.Equal(t, int64(90), tx.BalanceAfter)
	})

	t.Run("removal must be negative", func(t *testing.T) {
		_, err := NewTransaction(lotID, TransactionTypeRemoval, 5, 100, actor)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("admission must be positive", func(t *testing.T) {
		_, err := NewTransaction(lotID, TransactionTypeAdmission, -5, 100, actor)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("adjustment allows either sign", func(t *testing.T) {
		up, err := NewTransaction(lotID, TransactionTypeAdjustment, 3, 10, actor, WithReason("count correction"))
		require.NoError(t, err)
		assert.Equal(t, int64(13), up.BalanceAfter)

		down, err := NewTransaction(lotID, TransactionTypeAdjustment, -3, 10, actor, WithReason("count correction"))
		require.NoError(t, err)
		assert.Equal(t, int64(7), down.BalanceAfter)
	})

	t.Run("bulk adjustment allows either sign and requires a reason", func(t *testing.T) {
		tx, err := NewTransaction(lotID, TransactionTypeBulkAdjustment, -4, 10, actor,
			WithReason("annual cycle count"),
			WithSourceDocument("CC-2026-014"))
		require.NoError(t, err)
		assert.Equal(t, int64(6), tx.BalanceAfter)
		assert.Equal(t, "CC-2026-014", tx.SourceDocNo)
		assert.True(t, TransactionTypeBulkAdjustment.RequiresReason())
	})

	t.Run("rejects movement that would drive balance negative", func(t *testing.T) {
		_, err := NewTransaction(lotID, TransactionTypeShipment, -11, 10, actor)
		assert.Equal(t, "INSUFFICIENT_QUANTITY", domainCode(t, err))
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := NewTransaction(lotID, TransactionTypeAdjustment, 0, 10, actor)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewTransaction(lotID, TransactionType("TRANSFER"), 10, 0, actor)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("options populate reference and timing", func(t *testing.T) {
		refID := uuid.New()
		at := time.Now().Add(-2 * time.Hour)

		tx, err := NewTransaction(lotID, TransactionTypeAdmission, 50, 0, actor,
			WithReference("PREADMISSION", refID),
			WithReferenceData(`{"carrier":"maersk"}`),
			WithOccurredAt(at),
		)

		require.NoError(t, err)
		assert.Equal(t, "PREADMISSION", tx.ReferenceType)
		require.NotNil(t, tx.ReferenceID)
		assert.Equal(t, refID, *tx.ReferenceID)
		assert.Equal(t, `{"carrier":"maersk"}`, tx.ReferenceData)
		assert.True(t, tx.OccurredAt.Equal(at))
	})
}
