package lot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	domain "github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// allowedContentTypes whitelists what can be attached to a lot. Customs
// evidence is documents and scans; scripts and executables never belong here.
var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/tiff":      true,
	"application/pdf": true,
	"text/plain":      true,
	"text/csv":        true,
}

// ObjectStorageService is the slice of object storage the document flow
// needs. The infrastructure layer implements it against S3-compatible
// backends.
type ObjectStorageService interface {
	// GenerateUploadURL generates a presigned URL for uploading a file
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	// GenerateDownloadURL generates a presigned URL for downloading a file
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error
	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// DocumentServiceConfig holds the document flow tuning knobs
type DocumentServiceConfig struct {
	UploadURLExpiry    time.Duration
	DownloadURLExpiry  time.Duration
	MaxDocumentsPerLot int
	MaxFileSize        int64
}

// DefaultDocumentServiceConfig returns the default configuration
func DefaultDocumentServiceConfig() DocumentServiceConfig {
	return DocumentServiceConfig{
		UploadURLExpiry:    15 * time.Minute,
		DownloadURLExpiry:  time.Hour,
		MaxDocumentsPerLot: 20,
		MaxFileSize:        25 << 20,
	}
}

// DocumentService handles the customs documents attached to lots
type DocumentService struct {
	documents domain.DocumentRepository
	lots      domain.LotRepository
	storage   ObjectStorageService
	config    DocumentServiceConfig
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	documents domain.DocumentRepository,
	lots domain.LotRepository,
	storage ObjectStorageService,
) *DocumentService {
	return &DocumentService{
		documents: documents,
		lots:      lots,
		storage:   storage,
		config:    DefaultDocumentServiceConfig(),
	}
}

// SetConfig sets the service configuration
func (s *DocumentService) SetConfig(config DocumentServiceConfig) {
	s.config = config
}

// InitiateUploadRequest describes a new document upload
type InitiateUploadRequest struct {
	LotID       uuid.UUID `json:"lot_id" binding:"required"`
	Kind        string    `json:"kind" binding:"required"`
	FileName    string    `json:"file_name" binding:"required"`
	ContentType string    `json:"content_type" binding:"required"`
	FileSize    int64     `json:"file_size" binding:"required,gt=0"`
	UploadedBy  uuid.UUID `json:"-"`
}

// InitiateUploadResponse carries the pending record and its upload URL
type InitiateUploadResponse struct {
	Document  DocumentResponse `json:"document"`
	UploadURL string           `json:"upload_url"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// DocumentResponse is the API view of a lot document
type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	LotID       uuid.UUID  `json:"lot_id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	FileSize    int64      `json:"file_size"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toDocumentResponse(d *domain.LotDocument) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		LotID:       d.LotID,
		Kind:        string(d.Kind),
		Status:      string(d.Status),
		FileName:    d.FileName,
		ContentType: d.ContentType,
		FileSize:    d.FileSize,
		ConfirmedAt: d.ConfirmedAt,
		CreatedAt:   d.CreatedAt,
	}
}

// InitiateUpload creates a pending document record and returns a presigned
// upload URL for the caller to PUT the bytes directly to storage
func (s *DocumentService) InitiateUpload(ctx context.Context, req InitiateUploadRequest) (*InitiateUploadResponse, error) {
	if _, err := s.lots.FindByID(ctx, req.LotID); err != nil {
		return nil, err
	}

	if !allowedContentTypes[req.ContentType] {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Content type %q is not allowed for lot documents", req.ContentType))
	}
	if req.FileSize > s.config.MaxFileSize {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("File exceeds the %d byte limit", s.config.MaxFileSize))
	}

	count, err := s.documents.CountByLotID(ctx, req.LotID)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.config.MaxDocumentsPerLot) {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Lot already carries the maximum of %d documents", s.config.MaxDocumentsPerLot))
	}

	doc, err := domain.NewLotDocument(
		req.LotID,
		domain.DocumentKind(req.Kind),
		req.FileName,
		req.ContentType,
		req.FileSize,
		s.generateStorageKey(req.LotID, req.FileName),
		req.UploadedBy,
	)
	if err != nil {
		return nil, err
	}

	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, doc.StorageKey, doc.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		// Drop the pending record when no URL could be issued
		_ = s.documents.Delete(ctx, doc.ID)
		return nil, shared.NewDomainError("STORAGE_ERROR", "Failed to generate upload URL")
	}

	return &InitiateUploadResponse{
		Document:  toDocumentResponse(doc),
		UploadURL: uploadURL,
		ExpiresAt: expiresAt,
	}, nil
}

// ConfirmUpload verifies the object landed in storage and marks the record confirmed
func (s *DocumentService) ConfirmUpload(ctx context.Context, documentID uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	exists, err := s.storage.ObjectExists(ctx, doc.StorageKey)
	if err != nil {
		return nil, shared.NewDomainError("STORAGE_ERROR", "Failed to verify uploaded object")
	}
	if !exists {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Uploaded object was not found in storage")
	}

	if err := doc.Confirm(); err != nil {
		return nil, err
	}
	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}

	resp := toDocumentResponse(doc)
	return &resp, nil
}

// GetDownloadURL returns a presigned download URL for a confirmed document
func (s *DocumentService) GetDownloadURL(ctx context.Context, documentID uuid.UUID) (string, time.Time, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return "", time.Time{}, err
	}
	if doc.Status != domain.DocumentStatusConfirmed {
		return "", time.Time{}, shared.NewDomainError("VALIDATION_ERROR", "Document upload was never confirmed")
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, doc.StorageKey, s.config.DownloadURLExpiry)
	if err != nil {
		return "", time.Time{}, shared.NewDomainError("STORAGE_ERROR", "Failed to generate download URL")
	}
	return url, expiresAt, nil
}

// ListByLot returns the documents attached to a lot
func (s *DocumentService) ListByLot(ctx context.Context, lotID uuid.UUID) ([]DocumentResponse, error) {
	docs, err := s.documents.FindByLotID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return out, nil
}

// Delete removes a document record and its stored object
func (s *DocumentService) Delete(ctx context.Context, documentID uuid.UUID) error {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, doc.ID); err != nil {
		return err
	}
	// Storage cleanup is best effort; an orphaned object is harmless
	_ = s.storage.DeleteObject(ctx, doc.StorageKey)
	return nil
}

func (s *DocumentService) generateStorageKey(lotID uuid.UUID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("lots/%s/documents/%s%s", lotID, uuid.NewString(), ext)
}
