package lot

import (
	"fmt"
	"time"

	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryLot represents a trackable quantity of one part admitted to the
// zone for one customer. It is the aggregate root for all ledger operations.
//
// CurrentQuantity is a persisted cache of the transaction-log sum. Every
// mutation goes through ApplyQuantityChange so the cache, the status machine
// and the emitted events stay consistent; the reconciliation job verifies the
// cache against a full recomputation and reports (never repairs) drift.
type InventoryLot struct {
	shared.AuditedAggregateRoot
	PartID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	StorageLocationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status            LotStatus       `gorm:"type:varchar(20);not null;index"`
	PriorStatus       *LotStatus      `gorm:"type:varchar(20)"` // Status to restore when a hold is released
	OriginalQuantity  int64           `gorm:"not null"`         // Immutable after creation
	CurrentQuantity   int64           `gorm:"not null;default:0"`
	AdmissionDate     time.Time       `gorm:"type:timestamptz;not null"`
	ManifestNumber    string          `gorm:"type:varchar(100);not null;index"`
	TotalValue        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Voided            bool            `gorm:"not null;default:false"`
	VoidReason        string          `gorm:"type:varchar(255)"`
	Active            bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (InventoryLot) TableName() string {
	return "inventory_lots"
}

// NewInventoryLot creates a new lot in PENDING status with a zero balance.
// The balance only ever moves through ledger transactions, including the
// admission transaction that carries the original quantity.
func NewInventoryLot(
	partID, customerID, storageLocationID uuid.UUID,
	originalQuantity int64,
	admissionDate time.Time,
	manifestNumber string,
	totalValue decimal.Decimal,
	createdBy uuid.UUID,
) (*InventoryLot, error) {
	if partID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Part ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Customer ID cannot be empty")
	}
	if storageLocationID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Storage location ID cannot be empty")
	}
	if originalQuantity <= 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Original quantity must be positive")
	}
	if manifestNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Manifest number cannot be empty")
	}
	if totalValue.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Total value cannot be negative")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Creator ID cannot be empty")
	}

	l := &InventoryLot{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		PartID:               partID,
		CustomerID:           customerID,
		StorageLocationID:    storageLocationID,
		Status:               LotStatusPending,
		OriginalQuantity:     originalQuantity,
		CurrentQuantity:      0,
		AdmissionDate:        admissionDate,
		ManifestNumber:       manifestNumber,
		TotalValue:           totalValue,
		Active:               true,
	}

	l.AddDomainEvent(NewLotCreatedEvent(l))

	return l, nil
}

// CanWithdraw returns true if the lot can satisfy a withdrawal of the given quantity
func (l *InventoryLot) CanWithdraw(quantity int64) bool {
	return !l.Voided && l.Status != LotStatusOnHold && l.CurrentQuantity >= quantity
}

// ApplyQuantityChange applies a signed ledger delta to the lot, enforcing the
// non-negative balance invariant and running the automatic status
// transitions. The actor is recorded for audit.
func (l *InventoryLot) ApplyQuantityChange(delta int64, actor uuid.UUID) error {
	if l.Voided || l.Status == LotStatusVoided {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Voided lots accept no further transactions")
	}
	if delta == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Quantity change cannot be zero")
	}
	if delta < 0 && l.CurrentQuantity+delta < 0 {
		return shared.NewDomainError("INSUFFICIENT_QUANTITY",
			fmt.Sprintf("Lot %s holds %d units, cannot withdraw %d", l.ID, l.CurrentQuantity, -delta))
	}

	before := l.CurrentQuantity
	l.CurrentQuantity += delta
	l.Touch(actor)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewLotQuantityChangedEvent(l, before, l.CurrentQuantity, delta))

	l.evaluateStatus(before)

	return nil
}

// evaluateStatus runs the automatic transitions after a balance change
func (l *InventoryLot) evaluateStatus(balanceBefore int64) {
	switch {
	case l.Status == LotStatusPending && l.CurrentQuantity > 0:
		l.transitionTo(LotStatusInStock)
	case l.CurrentQuantity == 0 && balanceBefore > 0 &&
		(l.Status == LotStatusInStock || l.Status == LotStatusOnHold):
		l.transitionTo(LotStatusDepleted)
		l.AddDomainEvent(NewLotDepletedEvent(l))
	case l.Status == LotStatusDepleted && l.CurrentQuantity > 0:
		l.transitionTo(LotStatusInStock)
	}
}

// transitionTo changes status and emits a status-changed event.
// Callers must have verified the transition is legal.
func (l *InventoryLot) transitionTo(target LotStatus) {
	from := l.Status
	l.Status = target
	l.AddDomainEvent(NewLotStatusChangedEvent(l, from, target))
}

// PlaceHold freezes the lot. The prior status is remembered so the hold can
// be released back to it.
func (l *InventoryLot) PlaceHold(reason string, actor uuid.UUID) error {
	if l.Status == LotStatusOnHold {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Lot is already on hold")
	}
	if !l.Status.CanTransitionTo(LotStatusOnHold) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to %s", l.Status, LotStatusOnHold))
	}
	if reason == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Hold reason is required")
	}

	prior := l.Status
	l.PriorStatus = &prior
	l.transitionTo(LotStatusOnHold)
	l.Touch(actor)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// ReleaseHold reverses an explicit hold, restoring the prior status
func (l *InventoryLot) ReleaseHold(actor uuid.UUID) error {
	if l.Status != LotStatusOnHold {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Lot is not on hold")
	}

	target := LotStatusInStock
	if l.PriorStatus != nil {
		target = *l.PriorStatus
	}
	// The balance may have changed while on hold (e.g. an adjustment);
	// never restore IN_STOCK over an empty lot.
	if target == LotStatusInStock && l.CurrentQuantity == 0 {
		target = LotStatusDepleted
	}

	l.PriorStatus = nil
	l.transitionTo(target)
	l.Touch(actor)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// Void terminally cancels the lot. It zeroes the balance and returns the
// signed compensating quantity the caller must record as a single REMOVAL
// transaction, preserving the ledger invariant for auditors.
func (l *InventoryLot) Void(reason string, actor uuid.UUID) (compensation int64, err error) {
	if l.Voided || l.Status == LotStatusVoided {
		return 0, shared.NewDomainError("INVALID_STATE_TRANSITION", "Lot is already voided")
	}
	if reason == "" {
		return 0, shared.NewDomainError("VALIDATION_ERROR", "Void reason is required")
	}

	compensation = -l.CurrentQuantity
	l.CurrentQuantity = 0
	l.Voided = true
	l.Active = false
	l.VoidReason = reason
	l.PriorStatus = nil
	l.transitionTo(LotStatusVoided)
	l.Touch(actor)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewLotVoidedEvent(l, reason, compensation))

	return compensation, nil
}

// IsLowStock reports whether the lot should carry the informational
// "Low Stock" label. It is a view over IN_STOCK/ON_HOLD, not a status.
func (l *InventoryLot) IsLowStock(threshold int64) bool {
	if l.Status != LotStatusInStock && l.Status != LotStatusOnHold {
		return false
	}
	return threshold > 0 && l.CurrentQuantity > 0 && l.CurrentQuantity <= threshold
}

// RemainingValue returns the declared value of the remaining units: the
// stored total value prorated by the remaining fraction of the lot.
func (l *InventoryLot) RemainingValue() decimal.Decimal {
	if l.OriginalQuantity == 0 {
		return decimal.Zero
	}
	return l.TotalValue.
		Mul(decimal.NewFromInt(l.CurrentQuantity)).
		Div(decimal.NewFromInt(l.OriginalQuantity)).
		Round(4)
}
