package persistence

import (
	"context"
	"errors"

	"github.com/ftzops/backend/internal/domain/lot/acl"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartRecord maps the part catalog table the lookups read from.
type PartRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	PartNumber  string    `gorm:"uniqueIndex;not null"`
	Description string
	Active      bool `gorm:"not null;default:true"`
}

// TableName returns the table name for PartRecord
func (PartRecord) TableName() string {
	return "parts"
}

// CustomerRecord maps the customer registry table.
type CustomerRecord struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key"`
	Name   string    `gorm:"not null"`
	Active bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for CustomerRecord
func (CustomerRecord) TableName() string {
	return "customers"
}

// StorageLocationRecord maps the zone storage location table.
type StorageLocationRecord struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key"`
	Code   string    `gorm:"uniqueIndex;not null"`
	Active bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for StorageLocationRecord
func (StorageLocationRecord) TableName() string {
	return "storage_locations"
}

// GormPartLookup implements acl.PartLookup against the parts table
type GormPartLookup struct {
	db *gorm.DB
}

// NewGormPartLookup creates a new GormPartLookup
func NewGormPartLookup(db *gorm.DB) *GormPartLookup {
	return &GormPartLookup{db: db}
}

// FindByID resolves a part reference
func (l *GormPartLookup) FindByID(ctx context.Context, id uuid.UUID) (*acl.PartRef, error) {
	var rec PartRecord
	if err := l.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &acl.PartRef{
		ID:          rec.ID,
		PartNumber:  rec.PartNumber,
		Description: rec.Description,
		Active:      rec.Active,
	}, nil
}

// GormCustomerLookup implements acl.CustomerLookup against the customers table
type GormCustomerLookup struct {
	db *gorm.DB
}

// NewGormCustomerLookup creates a new GormCustomerLookup
func NewGormCustomerLookup(db *gorm.DB) *GormCustomerLookup {
	return &GormCustomerLookup{db: db}
}

// FindByID resolves a customer reference
func (l *GormCustomerLookup) FindByID(ctx context.Context, id uuid.UUID) (*acl.CustomerRef, error) {
	var rec CustomerRecord
	if err := l.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &acl.CustomerRef{
		ID:     rec.ID,
		Name:   rec.Name,
		Active: rec.Active,
	}, nil
}

// GormLocationLookup implements acl.LocationLookup against the storage_locations table
type GormLocationLookup struct {
	db *gorm.DB
}

// NewGormLocationLookup creates a new GormLocationLookup
func NewGormLocationLookup(db *gorm.DB) *GormLocationLookup {
	return &GormLocationLookup{db: db}
}

// FindByID resolves a storage location reference
func (l *GormLocationLookup) FindByID(ctx context.Context, id uuid.UUID) (*acl.LocationRef, error) {
	var rec StorageLocationRecord
	if err := l.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &acl.LocationRef{
		ID:     rec.ID,
		Code:   rec.Code,
		Active: rec.Active,
	}, nil
}

// Compile-time interface checks
var (
	_ acl.PartLookup     = (*GormPartLookup)(nil)
	_ acl.CustomerLookup = (*GormCustomerLookup)(nil)
	_ acl.LocationLookup = (*GormLocationLookup)(nil)
)
