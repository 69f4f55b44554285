package lot

import (
	"context"
	"strings"
	"time"

	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentStatus tracks the upload lifecycle of a lot document
type DocumentStatus string

const (
	DocumentStatusPending   DocumentStatus = "PENDING"   // Upload URL issued, object not confirmed
	DocumentStatusConfirmed DocumentStatus = "CONFIRMED" // Object verified in storage
)

// DocumentKind classifies what the document evidences
type DocumentKind string

const (
	DocumentKindManifest     DocumentKind = "MANIFEST"
	DocumentKindInvoice      DocumentKind = "INVOICE"
	DocumentKindBillOfLading DocumentKind = "BILL_OF_LADING"
	DocumentKindCustomsForm  DocumentKind = "CUSTOMS_FORM"
	DocumentKindOther        DocumentKind = "OTHER"
)

// IsValid checks if the document kind is valid
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindManifest, DocumentKindInvoice, DocumentKindBillOfLading, DocumentKindCustomsForm, DocumentKindOther:
		return true
	}
	return false
}

// LotDocument is a file attached to a lot as customs evidence. The bytes
// live in object storage; this row carries the metadata and upload state.
type LotDocument struct {
	shared.BaseEntity
	LotID       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Kind        DocumentKind   `gorm:"type:varchar(30);not null"`
	Status      DocumentStatus `gorm:"type:varchar(20);not null;index"`
	FileName    string         `gorm:"type:varchar(255);not null"`
	ContentType string         `gorm:"type:varchar(100);not null"`
	FileSize    int64          `gorm:"not null"`
	StorageKey  string         `gorm:"type:varchar(512);not null;uniqueIndex"`
	UploadedBy  uuid.UUID      `gorm:"type:uuid;not null"`
	ConfirmedAt *time.Time     `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (LotDocument) TableName() string {
	return "lot_documents"
}

// NewLotDocument creates a pending document record
func NewLotDocument(
	lotID uuid.UUID,
	kind DocumentKind,
	fileName, contentType string,
	fileSize int64,
	storageKey string,
	uploadedBy uuid.UUID,
) (*LotDocument, error) {
	if lotID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Lot ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invalid document kind")
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "File name cannot be empty")
	}
	if contentType == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Content type cannot be empty")
	}
	if fileSize <= 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "File size must be positive")
	}
	if storageKey == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Storage key cannot be empty")
	}
	if uploadedBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Uploader ID cannot be empty")
	}

	return &LotDocument{
		BaseEntity:  shared.NewBaseEntity(),
		LotID:       lotID,
		Kind:        kind,
		Status:      DocumentStatusPending,
		FileName:    fileName,
		ContentType: contentType,
		FileSize:    fileSize,
		StorageKey:  storageKey,
		UploadedBy:  uploadedBy,
	}, nil
}

// Confirm marks the object as verified in storage
func (d *LotDocument) Confirm() error {
	if d.Status == DocumentStatusConfirmed {
		return shared.NewDomainError("ALREADY_PROCESSED", "Document upload was already confirmed")
	}
	now := time.Now()
	d.Status = DocumentStatusConfirmed
	d.ConfirmedAt = &now
	d.UpdatedAt = now
	return nil
}

// DocumentRepository persists lot document metadata
type DocumentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LotDocument, error)
	FindByLotID(ctx context.Context, lotID uuid.UUID) ([]*LotDocument, error)
	CountByLotID(ctx context.Context, lotID uuid.UUID) (int64, error)
	Save(ctx context.Context, d *LotDocument) error
	Delete(ctx context.Context, id uuid.UUID) error
}
