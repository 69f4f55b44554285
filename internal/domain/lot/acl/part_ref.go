// Package acl holds the read-only views of neighboring contexts the lot
// ledger depends on. The ledger validates references through these lookups
// but never mutates the underlying records.
package acl

import (
	"context"

	"github.com/google/uuid"
)

// PartRef is the slice of the part catalog the ledger needs
type PartRef struct {
	ID          uuid.UUID
	PartNumber  string
	Description string
	Active      bool
}

// PartLookup resolves part references during admission
type PartLookup interface {
	// FindByID returns the part or a NOT_FOUND error
	FindByID(ctx context.Context, id uuid.UUID) (*PartRef, error)
}
