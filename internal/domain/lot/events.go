package lot

import (
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types emitted by the lot aggregate and the admission/shipment flows.
// Events for the same lot are published in the order the mutations happened.
const (
	EventTypeLotCreated            = "lot.created"
	EventTypeLotQuantityChanged    = "lot.quantity_changed"
	EventTypeLotStatusChanged      = "lot.status_changed"
	EventTypeLotDepleted           = "lot.depleted"
	EventTypeLotVoided             = "lot.voided"
	EventTypePreadmissionProcessed = "preadmission.processed"
	EventTypePreshipmentAllocated  = "preshipment.allocated"
)

// LotCreatedEvent is emitted when a new lot enters the ledger
type LotCreatedEvent struct {
	shared.BaseDomainEvent
	PartID           uuid.UUID `json:"part_id"`
	CustomerID       uuid.UUID `json:"customer_id"`
	OriginalQuantity int64     `json:"original_quantity"`
	ManifestNumber   string    `json:"manifest_number"`
}

// NewLotCreatedEvent creates a lot created event
func NewLotCreatedEvent(l *InventoryLot) *LotCreatedEvent {
	return &LotCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeLotCreated, "InventoryLot", l.ID),
		PartID:           l.PartID,
		CustomerID:       l.CustomerID,
		OriginalQuantity: l.OriginalQuantity,
		ManifestNumber:   l.ManifestNumber,
	}
}

// LotQuantityChangedEvent is emitted on every balance movement
type LotQuantityChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID    uuid.UUID `json:"customer_id"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Delta         int64     `json:"delta"`
}

// NewLotQuantityChangedEvent creates a quantity changed event
func NewLotQuantityChangedEvent(l *InventoryLot, before, after, delta int64) *LotQuantityChangedEvent {
	return &LotQuantityChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotQuantityChanged, "InventoryLot", l.ID),
		CustomerID:      l.CustomerID,
		BalanceBefore:   before,
		BalanceAfter:    after,
		Delta:           delta,
	}
}

// LotStatusChangedEvent is emitted on every status transition
type LotStatusChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	FromStatus LotStatus `json:"from_status"`
	ToStatus   LotStatus `json:"to_status"`
}

// NewLotStatusChangedEvent creates a status changed event
func NewLotStatusChangedEvent(l *InventoryLot, from, to LotStatus) *LotStatusChangedEvent {
	return &LotStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotStatusChanged, "InventoryLot", l.ID),
		CustomerID:      l.CustomerID,
		FromStatus:      from,
		ToStatus:        to,
	}
}

// LotDepletedEvent is emitted when a lot balance reaches zero through withdrawals
type LotDepletedEvent struct {
	shared.BaseDomainEvent
	CustomerID       uuid.UUID `json:"customer_id"`
	PartID           uuid.UUID `json:"part_id"`
	OriginalQuantity int64     `json:"original_quantity"`
}

// NewLotDepletedEvent creates a lot depleted event
func NewLotDepletedEvent(l *InventoryLot) *LotDepletedEvent {
	return &LotDepletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeLotDepleted, "InventoryLot", l.ID),
		CustomerID:       l.CustomerID,
		PartID:           l.PartID,
		OriginalQuantity: l.OriginalQuantity,
	}
}

// LotVoidedEvent is emitted when a lot is terminally cancelled
type LotVoidedEvent struct {
	shared.BaseDomainEvent
	CustomerID   uuid.UUID `json:"customer_id"`
	Reason       string    `json:"reason"`
	Compensation int64     `json:"compensation"` // Signed quantity removed to zero the balance
}

// NewLotVoidedEvent creates a lot voided event
func NewLotVoidedEvent(l *InventoryLot, reason string, compensation int64) *LotVoidedEvent {
	return &LotVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotVoided, "InventoryLot", l.ID),
		CustomerID:      l.CustomerID,
		Reason:          reason,
		Compensation:    compensation,
	}
}

// PreadmissionProcessedEvent is emitted when a filing is admitted into a lot
type PreadmissionProcessedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	LotID      uuid.UUID `json:"lot_id"`
	Quantity   int64     `json:"quantity"`
}

// NewPreadmissionProcessedEvent creates a preadmission processed event
func NewPreadmissionProcessedEvent(p *Preadmission, lotID uuid.UUID) *PreadmissionProcessedEvent {
	return &PreadmissionProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePreadmissionProcessed, "Preadmission", p.ID),
		CustomerID:      p.CustomerID,
		LotID:           lotID,
		Quantity:        p.Quantity,
	}
}

// PreshipmentAllocatedEvent is emitted when every item of a shipment has
// been withdrawn from its source lot
type PreshipmentAllocatedEvent struct {
	shared.BaseDomainEvent
	CustomerID    uuid.UUID `json:"customer_id"`
	TotalQuantity int64     `json:"total_quantity"`
	ItemCount     int       `json:"item_count"`
}

// NewPreshipmentAllocatedEvent creates a preshipment allocated event
func NewPreshipmentAllocatedEvent(p *Preshipment) *PreshipmentAllocatedEvent {
	return &PreshipmentAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePreshipmentAllocated, "Preshipment", p.ID),
		CustomerID:      p.CustomerID,
		TotalQuantity:   p.TotalQuantity(),
		ItemCount:       len(p.Items),
	}
}
