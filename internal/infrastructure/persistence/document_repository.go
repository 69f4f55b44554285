package persistence

import (
	"context"
	"errors"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements lot.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*lot.LotDocument, error) {
	var d lot.LotDocument
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindByLotID returns a lot's documents, newest first
func (r *GormDocumentRepository) FindByLotID(ctx context.Context, lotID uuid.UUID) ([]*lot.LotDocument, error) {
	var docs []*lot.LotDocument
	if err := r.db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("created_at desc").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// CountByLotID counts the documents attached to a lot
func (r *GormDocumentRepository) CountByLotID(ctx context.Context, lotID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&lot.LotDocument{}).
		Where("lot_id = ?", lotID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists a document record
func (r *GormDocumentRepository) Save(ctx context.Context, d *lot.LotDocument) error {
	return r.db.WithContext(ctx).Save(d).Error
}

// Delete removes a document record
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&lot.LotDocument{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormDocumentRepository implements DocumentRepository
var _ lot.DocumentRepository = (*GormDocumentRepository)(nil)
