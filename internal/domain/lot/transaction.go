package lot

import (
	"fmt"
	"time"

	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TransactionType represents the kind of ledger movement
type TransactionType string

const (
	TransactionTypeAdmission      TransactionType = "ADMISSION"       // Goods entering the zone, positive
	TransactionTypeShipment       TransactionType = "SHIPMENT"        // Goods leaving the zone, negative
	TransactionTypeAdjustment     TransactionType = "ADJUSTMENT"      // Audit correction, either sign
	TransactionTypeRemoval        TransactionType = "REMOVAL"         // Destruction, scrap or void compensation, negative
	TransactionTypeBulkAdjustment TransactionType = "BULK_ADJUSTMENT" // Cycle-count batch correction, either sign
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeAdmission, TransactionTypeShipment, TransactionTypeAdjustment,
		TransactionTypeRemoval, TransactionTypeBulkAdjustment:
		return true
	}
	return false
}

func (t TransactionType) String() string {
	return string(t)
}

// allowsSign reports whether the type permits the given signed quantity
func (t TransactionType) allowsSign(quantity int64) bool {
	switch t {
	case TransactionTypeAdmission:
		return quantity > 0
	case TransactionTypeShipment, TransactionTypeRemoval:
		return quantity < 0
	case TransactionTypeAdjustment, TransactionTypeBulkAdjustment:
		return quantity != 0
	}
	return false
}

// RequiresReason reports whether the type must carry a justification
func (t TransactionType) RequiresReason() bool {
	switch t {
	case TransactionTypeAdjustment, TransactionTypeBulkAdjustment, TransactionTypeRemoval:
		return true
	}
	return false
}

// Transaction is one immutable ledger entry against a lot. Rows are only
// ever inserted; corrections are new ADJUSTMENT entries, never updates.
// BalanceBefore/BalanceAfter snapshot the lot balance around the entry so
// auditors can replay the ledger without recomputation.
type Transaction struct {
	shared.BaseEntity
	LotID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_lot_transactions_lot_time"`
	Type          TransactionType `gorm:"type:varchar(20);not null;index"`
	Quantity      int64           `gorm:"not null"` // Signed: positive adds, negative withdraws
	BalanceBefore int64           `gorm:"not null"`
	BalanceAfter  int64           `gorm:"not null"`
	OccurredAt    time.Time       `gorm:"type:timestamptz;not null;index:idx_lot_transactions_lot_time"`
	SourceDocNo   string          `gorm:"column:source_document_number;type:varchar(100)"` // Manifest, shipment or count sheet number
	ReferenceType string          `gorm:"type:varchar(50)"`                                // e.g. PREADMISSION, PRESHIPMENT
	ReferenceID   *uuid.UUID      `gorm:"type:uuid;index"`
	Reason        string          `gorm:"type:varchar(255)"`
	ReferenceData string          `gorm:"type:jsonb"` // Extra context, stored as JSON
	PerformedBy   uuid.UUID       `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "lot_transactions"
}

// NewTransaction creates a ledger entry for the given lot balance movement.
// balanceBefore is the lot balance the entry was applied against.
func NewTransaction(
	lotID uuid.UUID,
	txType TransactionType,
	quantity int64,
	balanceBefore int64,
	performedBy uuid.UUID,
	opts ...TransactionOption,
) (*Transaction, error) {
	if lotID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Lot ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid transaction type: %s", txType))
	}
	if quantity == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Transaction quantity cannot be zero")
	}
	if !txType.allowsSign(quantity) {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Transaction type %s does not permit quantity %d", txType, quantity))
	}
	if balanceBefore+quantity < 0 {
		return nil, shared.NewDomainError("INSUFFICIENT_QUANTITY",
			fmt.Sprintf("Balance %d cannot absorb movement of %d", balanceBefore, quantity))
	}
	if performedBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Performer ID cannot be empty")
	}

	tx := &Transaction{
		BaseEntity:    shared.NewBaseEntity(),
		LotID:         lotID,
		Type:          txType,
		Quantity:      quantity,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore + quantity,
		OccurredAt:    time.Now(),
		PerformedBy:   performedBy,
	}

	for _, opt := range opts {
		opt(tx)
	}

	return tx, nil
}

// TransactionOption configures optional transaction fields at creation
type TransactionOption func(*Transaction)

// WithReference links the entry to the document that caused it
func WithReference(refType string, refID uuid.UUID) TransactionOption {
	return func(tx *Transaction) {
		tx.ReferenceType = refType
		tx.ReferenceID = &refID
	}
}

// WithSourceDocument records the paper document number behind the entry,
// e.g. the admission manifest or the outbound shipment number
func WithSourceDocument(number string) TransactionOption {
	return func(tx *Transaction) {
		tx.SourceDocNo = number
	}
}

// WithReason records a human-readable cause, required for adjustments and removals
func WithReason(reason string) TransactionOption {
	return func(tx *Transaction) {
		tx.Reason = reason
	}
}

// WithReferenceData attaches extra JSON context to the entry
func WithReferenceData(data string) TransactionOption {
	return func(tx *Transaction) {
		tx.ReferenceData = data
	}
}

// WithOccurredAt overrides the entry timestamp, used when backdating
// an admission to its physical arrival time
func WithOccurredAt(at time.Time) TransactionOption {
	return func(tx *Transaction) {
		tx.OccurredAt = at
	}
}
