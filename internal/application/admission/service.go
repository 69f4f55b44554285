// Package admission implements the preadmission intake flow: filings are
// created and cancelled here, and processing a filing is the only path
// that creates a new inventory lot together with its opening ledger entry.
package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ftzops/backend/internal/application/ledger"
	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/lot/acl"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service handles preadmission filings and their processing into lots
type Service struct {
	scope          ledger.TransactionScope
	preadmissions  lot.PreadmissionRepository
	customers      acl.CustomerLookup
	parts          acl.PartLookup
	locations      acl.LocationLookup
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	maxRetries     uint64
}

// NewService creates a new admission Service
func NewService(
	scope ledger.TransactionScope,
	preadmissions lot.PreadmissionRepository,
	customers acl.CustomerLookup,
	parts acl.PartLookup,
	locations acl.LocationLookup,
	logger *zap.Logger,
) *Service {
	return &Service{
		scope:         scope,
		preadmissions: preadmissions,
		customers:     customers,
		parts:         parts,
		locations:     locations,
		logger:        logger,
		maxRetries:    3,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreatePreadmissionRequest describes a new filing
type CreatePreadmissionRequest struct {
	CustomerID        uuid.UUID       `json:"customer_id" binding:"required"`
	PartID            uuid.UUID       `json:"part_id" binding:"required"`
	StorageLocationID uuid.UUID       `json:"storage_location_id" binding:"required"`
	Quantity          int64           `json:"quantity" binding:"required,gt=0"`
	ManifestNumber    string          `json:"manifest_number" binding:"required"`
	ExpectedArrival   time.Time       `json:"expected_arrival" binding:"required"`
	DeclaredValue     decimal.Decimal `json:"declared_value"`
	CreatedBy         uuid.UUID       `json:"-"`
}

// Create files a new pending preadmission after validating its references
func (s *Service) Create(ctx context.Context, req CreatePreadmissionRequest) (*PreadmissionResponse, error) {
	if err := s.validateReferences(ctx, req.CustomerID, req.PartID, req.StorageLocationID); err != nil {
		return nil, err
	}

	p, err := lot.NewPreadmission(
		req.CustomerID, req.PartID, req.StorageLocationID,
		req.Quantity, req.ManifestNumber, req.ExpectedArrival,
		req.DeclaredValue, req.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	if err := s.preadmissions.Save(ctx, p); err != nil {
		return nil, err
	}

	resp := ToPreadmissionResponse(p)
	return &resp, nil
}

// ProcessResult is the outcome of admitting a filing
type ProcessResult struct {
	Preadmission PreadmissionResponse      `json:"preadmission"`
	Lot          LotSummary                `json:"lot"`
	Transaction  ledger.TransactionResponse `json:"transaction"`
}

// Process admits a pending filing: it creates the lot with its opening
// ADMISSION entry, then marks the filing processed. The two steps run in
// separate transactions; a failure in the second compensates the first by
// removing the freshly created lot and its entry so a retry starts clean.
// Transient failures are retried with exponential backoff.
func (s *Service) Process(ctx context.Context, preadmissionID, actor uuid.UUID) (*ProcessResult, error) {
	var result *ProcessResult

	operation := func() error {
		r, err := s.processOnce(ctx, preadmissionID, actor)
		if err != nil {
			var de *shared.DomainError
			if errors.As(err, &de) && shared.IsTerminal(de) {
				return backoff.Permanent(err)
			}
			s.logger.Warn("admission attempt failed, retrying",
				zap.String("preadmission_id", preadmissionID.String()),
				zap.Error(err))
			return err
		}
		result = r
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) processOnce(ctx context.Context, preadmissionID, actor uuid.UUID) (*ProcessResult, error) {
	pre, err := s.preadmissions.FindByID(ctx, preadmissionID)
	if err != nil {
		return nil, err
	}
	if pre.IsProcessed() {
		return nil, shared.NewDomainError("ALREADY_PROCESSED",
			fmt.Sprintf("Preadmission %s was already admitted to lot %s", pre.ID, pre.ProcessedToLotID))
	}
	if pre.Status == lot.PreadmissionStatusCancelled {
		return nil, shared.NewDomainError("INVALID_STATE_TRANSITION", "Cancelled preadmissions cannot be processed")
	}

	if err := s.validateReferences(ctx, pre.CustomerID, pre.PartID, pre.StorageLocationID); err != nil {
		return nil, err
	}

	// Step one: materialize the lot and its opening ledger entry
	var (
		newLot *lot.InventoryLot
		entry  *lot.Transaction
	)
	err = s.scope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		l, err := lot.NewInventoryLot(
			pre.PartID, pre.CustomerID, pre.StorageLocationID,
			pre.Quantity, pre.ExpectedArrival, pre.ManifestNumber,
			pre.DeclaredValue, actor,
		)
		if err != nil {
			return err
		}

		tx, err := lot.NewTransaction(l.ID, lot.TransactionTypeAdmission, pre.Quantity, 0, actor,
			lot.WithReference("PREADMISSION", pre.ID),
			lot.WithSourceDocument(pre.ManifestNumber))
		if err != nil {
			return err
		}

		if err := l.ApplyQuantityChange(pre.Quantity, actor); err != nil {
			return err
		}

		if err := repos.LotRepo().Save(ctx, l); err != nil {
			return err
		}
		if err := repos.LedgerRepo().Insert(ctx, tx); err != nil {
			return err
		}

		newLot = l
		entry = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step two: link the filing to the lot. On failure the lot from step
	// one must not survive, so compensate before surfacing the error.
	err = s.scope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		current, err := repos.PreadmissionRepo().FindByID(ctx, pre.ID)
		if err != nil {
			return err
		}
		if err := current.MarkProcessed(newLot.ID, actor); err != nil {
			return err
		}
		if err := repos.PreadmissionRepo().SaveWithLock(ctx, current); err != nil {
			return err
		}
		pre = current
		return nil
	})
	if err != nil {
		s.compensate(ctx, newLot.ID)
		return nil, err
	}

	s.publishDomainEvents(ctx, newLot.GetDomainEvents())
	newLot.ClearDomainEvents()
	s.publishDomainEvents(ctx, pre.GetDomainEvents())
	pre.ClearDomainEvents()

	s.logger.Info("preadmission processed",
		zap.String("preadmission_id", pre.ID.String()),
		zap.String("lot_id", newLot.ID.String()),
		zap.Int64("quantity", pre.Quantity))

	return &ProcessResult{
		Preadmission: ToPreadmissionResponse(pre),
		Lot:          ToLotSummary(newLot),
		Transaction:  ledger.ToTransactionResponse(entry),
	}, nil
}

// compensate removes the lot created by a half-finished admission together
// with its opening ledger entry. The entry must go first: lot_transactions
// references inventory_lots, so deleting the lot alone trips the foreign
// key and leaves the orphan behind. Best effort: if the unwind itself
// fails the reconciliation sweep will flag the orphan, and the filing is
// still unprocessed either way.
func (s *Service) compensate(ctx context.Context, lotID uuid.UUID) {
	err := s.scope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		if err := repos.LedgerRepo().DeleteByLotID(ctx, lotID); err != nil {
			return err
		}
		return repos.LotRepo().Delete(ctx, lotID)
	})
	if err != nil {
		s.logger.Error("admission compensation failed",
			zap.String("lot_id", lotID.String()),
			zap.Error(err))
		return
	}
	s.logger.Warn("admission compensated, lot removed",
		zap.String("lot_id", lotID.String()))
}

// Cancel withdraws a pending filing
func (s *Service) Cancel(ctx context.Context, preadmissionID, actor uuid.UUID) (*PreadmissionResponse, error) {
	p, err := s.preadmissions.FindByID(ctx, preadmissionID)
	if err != nil {
		return nil, err
	}
	if err := p.Cancel(actor); err != nil {
		return nil, err
	}
	if err := s.preadmissions.SaveWithLock(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPreadmissionResponse(p)
	return &resp, nil
}

// GetByID returns one filing
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*PreadmissionResponse, error) {
	p, err := s.preadmissions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPreadmissionResponse(p)
	return &resp, nil
}

// List returns filings matching the filter
func (s *Service) List(ctx context.Context, filter lot.PreadmissionFilter) (*shared.Paginated[PreadmissionResponse], error) {
	page, err := s.preadmissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]PreadmissionResponse, 0, len(page.Items))
	for _, p := range page.Items {
		responses = append(responses, ToPreadmissionResponse(p))
	}
	result := shared.NewPaginated(responses, page.Total, page.Page, page.PageSize)
	return &result, nil
}

func (s *Service) validateReferences(ctx context.Context, customerID, partID, locationID uuid.UUID) error {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil || customer == nil || !customer.Active {
		return shared.NewDomainError("REFERENCE_ERROR",
			fmt.Sprintf("Customer %s does not exist or is inactive", customerID))
	}
	part, err := s.parts.FindByID(ctx, partID)
	if err != nil || part == nil || !part.Active {
		return shared.NewDomainError("REFERENCE_ERROR",
			fmt.Sprintf("Part %s does not exist or is inactive", partID))
	}
	location, err := s.locations.FindByID(ctx, locationID)
	if err != nil || location == nil || !location.Active {
		return shared.NewDomainError("REFERENCE_ERROR",
			fmt.Sprintf("Storage location %s does not exist or is inactive", locationID))
	}
	return nil
}

func (s *Service) publishDomainEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
