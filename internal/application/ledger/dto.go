package ledger

import (
	"time"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/google/uuid"
)

// TransactionResponse is the API view of one ledger entry
type TransactionResponse struct {
	ID            uuid.UUID  `json:"id"`
	LotID         uuid.UUID  `json:"lot_id"`
	Type          string     `json:"type"`
	Quantity      int64      `json:"quantity"`
	BalanceBefore int64      `json:"balance_before"`
	BalanceAfter  int64      `json:"balance_after"`
	OccurredAt    time.Time  `json:"occurred_at"`
	SourceDocNo   string     `json:"source_document_number,omitempty"`
	ReferenceType string     `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID `json:"reference_id,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	PerformedBy   uuid.UUID  `json:"performed_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToTransactionResponse converts a ledger entry to its API view
func ToTransactionResponse(tx *lot.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID,
		LotID:         tx.LotID,
		Type:          tx.Type.String(),
		Quantity:      tx.Quantity,
		BalanceBefore: tx.BalanceBefore,
		BalanceAfter:  tx.BalanceAfter,
		OccurredAt:    tx.OccurredAt,
		SourceDocNo:   tx.SourceDocNo,
		ReferenceType: tx.ReferenceType,
		ReferenceID:   tx.ReferenceID,
		Reason:        tx.Reason,
		PerformedBy:   tx.PerformedBy,
		CreatedAt:     tx.CreatedAt,
	}
}
