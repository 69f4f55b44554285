package lot

import (
	"context"
	"time"

	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LotFilter carries the query options for lot listings
type LotFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	PartID     *uuid.UUID
	Statuses   []LotStatus
	Voided     *bool
	Manifest   string
}

// TransactionFilter carries the query options for ledger listings
type TransactionFilter struct {
	shared.Filter
	LotID         *uuid.UUID
	Types         []TransactionType
	ReferenceType string
	ReferenceID   *uuid.UUID
	From          *time.Time
	To            *time.Time
}

// PreadmissionFilter carries the query options for preadmission listings
type PreadmissionFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Statuses   []PreadmissionStatus
}

// PreshipmentFilter carries the query options for preshipment listings
type PreshipmentFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Statuses   []PreshipmentStatus
}

// LotRepository persists inventory lots
type LotRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryLot, error)
	FindByManifest(ctx context.Context, customerID uuid.UUID, manifestNumber string) ([]*InventoryLot, error)
	List(ctx context.Context, filter LotFilter) (*shared.Paginated[*InventoryLot], error)
	Save(ctx context.Context, l *InventoryLot) error
	// SaveWithLock persists under optimistic concurrency: it fails with a
	// CONCURRENCY_CONFLICT error when the stored version no longer matches.
	SaveWithLock(ctx context.Context, l *InventoryLot) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionRepository persists the append-only lot ledger
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// FindByLotID returns the lot's entries ordered by occurrence then insertion
	FindByLotID(ctx context.Context, lotID uuid.UUID) ([]*Transaction, error)
	List(ctx context.Context, filter TransactionFilter) (*shared.Paginated[*Transaction], error)
	// SumByLotID recomputes the lot balance from the ledger alone
	SumByLotID(ctx context.Context, lotID uuid.UUID) (int64, error)
	Insert(ctx context.Context, tx *Transaction) error
	// DeleteByLotID removes every entry of the given lot. Committed history
	// is append-only; this exists solely so a failed admission can unwind
	// the opening entry before the lot becomes visible. Must run in the
	// same transaction as the lot row removal.
	DeleteByLotID(ctx context.Context, lotID uuid.UUID) error
}

// PreadmissionRepository persists admission filings
type PreadmissionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Preadmission, error)
	List(ctx context.Context, filter PreadmissionFilter) (*shared.Paginated[*Preadmission], error)
	Save(ctx context.Context, p *Preadmission) error
	SaveWithLock(ctx context.Context, p *Preadmission) error
}

// PreshipmentRepository persists outbound shipment requests and their items
type PreshipmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Preshipment, error)
	List(ctx context.Context, filter PreshipmentFilter) (*shared.Paginated[*Preshipment], error)
	Save(ctx context.Context, p *Preshipment) error
	SaveWithLock(ctx context.Context, p *Preshipment) error
}

// EntrySummaryRepository reads customs entry filings
type EntrySummaryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*EntrySummary, error)
	FindByPreshipmentID(ctx context.Context, preshipmentID uuid.UUID) ([]*EntrySummary, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[*EntrySummary], error)
}
