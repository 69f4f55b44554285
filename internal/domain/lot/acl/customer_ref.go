package acl

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRef is the slice of the customer registry the ledger needs
type CustomerRef struct {
	ID     uuid.UUID
	Name   string
	Active bool
}

// CustomerLookup resolves customer references during admission and shipment
type CustomerLookup interface {
	// FindByID returns the customer or a NOT_FOUND error
	FindByID(ctx context.Context, id uuid.UUID) (*CustomerRef, error)
}

// LocationRef is a storage location inside the zone
type LocationRef struct {
	ID     uuid.UUID
	Code   string
	Active bool
}

// LocationLookup resolves storage location references during admission
type LocationLookup interface {
	// FindByID returns the location or a NOT_FOUND error
	FindByID(ctx context.Context, id uuid.UUID) (*LocationRef, error)
}
