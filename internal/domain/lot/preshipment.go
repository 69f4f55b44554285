package lot

import (
	"time"

	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PreshipmentStatus tracks the lifecycle of an outbound shipment request
type PreshipmentStatus string

const (
	PreshipmentStatusDraft     PreshipmentStatus = "DRAFT"
	PreshipmentStatusAllocated PreshipmentStatus = "ALLOCATED"
	PreshipmentStatusShipped   PreshipmentStatus = "SHIPPED"
	PreshipmentStatusCancelled PreshipmentStatus = "CANCELLED"
)

// IsValid checks if the preshipment status is valid
func (s PreshipmentStatus) IsValid() bool {
	switch s {
	case PreshipmentStatusDraft, PreshipmentStatusAllocated, PreshipmentStatusShipped, PreshipmentStatusCancelled:
		return true
	}
	return false
}

func (s PreshipmentStatus) String() string {
	return string(s)
}

// Preshipment is an outbound shipment request. Allocation reserves quantity
// from specific lots by writing SHIPMENT ledger entries; the items record
// which lot each unit was drawn from.
type Preshipment struct {
	shared.AuditedAggregateRoot
	CustomerID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status         PreshipmentStatus `gorm:"type:varchar(20);not null;index"`
	ShipmentNumber string            `gorm:"type:varchar(100);not null;uniqueIndex"`
	Destination    string            `gorm:"type:varchar(255);not null"`
	Items          []PreshipmentItem `gorm:"foreignKey:PreshipmentID"`
	AllocatedAt    *time.Time        `gorm:"type:timestamptz"`
	ShippedAt      *time.Time        `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (Preshipment) TableName() string {
	return "preshipments"
}

// PreshipmentItem records a quantity drawn from one lot for one shipment
type PreshipmentItem struct {
	shared.BaseEntity
	PreshipmentID uuid.UUID `gorm:"type:uuid;not null;index"`
	LotID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity      int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PreshipmentItem) TableName() string {
	return "preshipment_items"
}

// NewPreshipment creates a draft shipment request
func NewPreshipment(
	customerID uuid.UUID,
	shipmentNumber, destination string,
	createdBy uuid.UUID,
) (*Preshipment, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Customer ID cannot be empty")
	}
	if shipmentNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Shipment number cannot be empty")
	}
	if destination == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Destination cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Creator ID cannot be empty")
	}

	return &Preshipment{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		CustomerID:           customerID,
		Status:               PreshipmentStatusDraft,
		ShipmentNumber:       shipmentNumber,
		Destination:          destination,
		Items:                []PreshipmentItem{},
	}, nil
}

// AddItem appends a lot line to a draft shipment
func (p *Preshipment) AddItem(lotID uuid.UUID, quantity int64) error {
	if p.Status != PreshipmentStatusDraft {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Items can only be added to draft shipments")
	}
	if lotID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Lot ID cannot be empty")
	}
	if quantity <= 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Item quantity must be positive")
	}
	for _, item := range p.Items {
		if item.LotID == lotID {
			return shared.NewDomainError("VALIDATION_ERROR", "Shipment already contains an item for this lot")
		}
	}

	p.Items = append(p.Items, PreshipmentItem{
		BaseEntity:    shared.NewBaseEntity(),
		PreshipmentID: p.ID,
		LotID:         lotID,
		Quantity:      quantity,
	})

	return nil
}

// TotalQuantity returns the summed quantity over all items
func (p *Preshipment) TotalQuantity() int64 {
	var total int64
	for _, item := range p.Items {
		total += item.Quantity
	}
	return total
}

// MarkAllocated records that every item has a matching ledger withdrawal
func (p *Preshipment) MarkAllocated(actor uuid.UUID) error {
	if p.Status != PreshipmentStatusDraft {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Only draft shipments can be allocated")
	}
	if len(p.Items) == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Cannot allocate a shipment with no items")
	}

	now := time.Now()
	p.Status = PreshipmentStatusAllocated
	p.AllocatedAt = &now
	p.Touch(actor)
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPreshipmentAllocatedEvent(p))

	return nil
}

// MarkShipped records physical departure of an allocated shipment
func (p *Preshipment) MarkShipped(actor uuid.UUID) error {
	if p.Status != PreshipmentStatusAllocated {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Only allocated shipments can be shipped")
	}

	now := time.Now()
	p.Status = PreshipmentStatusShipped
	p.ShippedAt = &now
	p.Touch(actor)
	p.UpdatedAt = now
	p.IncrementVersion()

	return nil
}

// Cancel withdraws a draft shipment request
func (p *Preshipment) Cancel(actor uuid.UUID) error {
	if p.Status != PreshipmentStatusDraft {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Only draft shipments can be cancelled")
	}

	p.Status = PreshipmentStatusCancelled
	p.Touch(actor)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}
