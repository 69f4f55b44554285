package lot

import (
	"time"

	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PreadmissionStatus tracks the lifecycle of a pre-filed admission
type PreadmissionStatus string

const (
	PreadmissionStatusPending   PreadmissionStatus = "PENDING"
	PreadmissionStatusProcessed PreadmissionStatus = "PROCESSED"
	PreadmissionStatusCancelled PreadmissionStatus = "CANCELLED"
)

// IsValid checks if the preadmission status is valid
func (s PreadmissionStatus) IsValid() bool {
	switch s {
	case PreadmissionStatusPending, PreadmissionStatusProcessed, PreadmissionStatusCancelled:
		return true
	}
	return false
}

func (s PreadmissionStatus) String() string {
	return string(s)
}

// Preadmission is the customs pre-filing for goods expected to arrive.
// Processing it is the only way a new lot enters the ledger; the link to
// the created lot makes processing idempotent.
type Preadmission struct {
	shared.AuditedAggregateRoot
	CustomerID        uuid.UUID          `gorm:"type:uuid;not null;index"`
	PartID            uuid.UUID          `gorm:"type:uuid;not null;index"`
	StorageLocationID uuid.UUID          `gorm:"type:uuid;not null"`
	Status            PreadmissionStatus `gorm:"type:varchar(20);not null;index"`
	Quantity          int64              `gorm:"not null"`
	ManifestNumber    string             `gorm:"type:varchar(100);not null;index"`
	ExpectedArrival   time.Time          `gorm:"type:timestamptz;not null"`
	DeclaredValue     decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	ProcessedToLotID  *uuid.UUID         `gorm:"type:uuid;index"`
	ProcessedAt       *time.Time         `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (Preadmission) TableName() string {
	return "preadmissions"
}

// NewPreadmission creates a pending admission filing
func NewPreadmission(
	customerID, partID, storageLocationID uuid.UUID,
	quantity int64,
	manifestNumber string,
	expectedArrival time.Time,
	declaredValue decimal.Decimal,
	createdBy uuid.UUID,
) (*Preadmission, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Customer ID cannot be empty")
	}
	if partID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Part ID cannot be empty")
	}
	if storageLocationID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Storage location ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Quantity must be positive")
	}
	if manifestNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Manifest number cannot be empty")
	}
	if declaredValue.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Declared value cannot be negative")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Creator ID cannot be empty")
	}

	return &Preadmission{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		CustomerID:           customerID,
		PartID:               partID,
		StorageLocationID:    storageLocationID,
		Status:               PreadmissionStatusPending,
		Quantity:             quantity,
		ManifestNumber:       manifestNumber,
		ExpectedArrival:      expectedArrival,
		DeclaredValue:        declaredValue,
	}, nil
}

// IsProcessed reports whether the filing already produced a lot
func (p *Preadmission) IsProcessed() bool {
	return p.Status == PreadmissionStatusProcessed
}

// MarkProcessed records the lot the filing was admitted into
func (p *Preadmission) MarkProcessed(lotID uuid.UUID, actor uuid.UUID) error {
	if p.Status == PreadmissionStatusProcessed {
		return shared.NewDomainError("ALREADY_PROCESSED", "Preadmission has already been processed")
	}
	if p.Status == PreadmissionStatusCancelled {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Cancelled preadmissions cannot be processed")
	}
	if lotID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Lot ID cannot be empty")
	}

	now := time.Now()
	p.Status = PreadmissionStatusProcessed
	p.ProcessedToLotID = &lotID
	p.ProcessedAt = &now
	p.Touch(actor)
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPreadmissionProcessedEvent(p, lotID))

	return nil
}

// Cancel withdraws a pending filing
func (p *Preadmission) Cancel(actor uuid.UUID) error {
	if p.Status != PreadmissionStatusPending {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Only pending preadmissions can be cancelled")
	}

	p.Status = PreadmissionStatusCancelled
	p.Touch(actor)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}
