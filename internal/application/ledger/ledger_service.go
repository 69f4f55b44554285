package ledger

import (
	"context"
	"fmt"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LedgerService is the single write path for lot balances. Every movement —
// admission, shipment, adjustment, removal — flows through Append, which
// serializes on the lot guard, writes the ledger entry and the lot update
// in one transaction, and publishes the resulting events in order.
type LedgerService struct {
	scope          TransactionScope
	guard          lot.Guard
	ledgerRepo     lot.TransactionRepository
	lotRepo        lot.LotRepository
	eventPublisher shared.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	scope TransactionScope,
	guard lot.Guard,
	lotRepo lot.LotRepository,
	ledgerRepo lot.TransactionRepository,
) *LedgerService {
	return &LedgerService{
		scope:      scope,
		guard:      guard,
		lotRepo:    lotRepo,
		ledgerRepo: ledgerRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// AppendTransactionRequest describes one ledger movement against a lot
type AppendTransactionRequest struct {
	LotID         uuid.UUID           `json:"lot_id" binding:"required"`
	Type          lot.TransactionType `json:"type" binding:"required"`
	Quantity      int64               `json:"quantity" binding:"required"`
	Reason        string              `json:"reason"`
	SourceDocNo   string              `json:"source_document_number"`
	ReferenceType string              `json:"reference_type"`
	ReferenceID   *uuid.UUID          `json:"reference_id"`
	ReferenceData string              `json:"reference_data"`
	PerformedBy   uuid.UUID           `json:"-"`
}

// Append records one movement on a lot. It acquires the lot guard, applies
// the delta to the aggregate, inserts the ledger entry and saves the lot
// under optimistic locking in a single transaction. Events are published
// after commit, still under the guard, so per-lot order is preserved.
func (s *LedgerService) Append(ctx context.Context, req AppendTransactionRequest) (*TransactionResponse, error) {
	if req.Type.RequiresReason() && req.Reason == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("%s transactions require a reason", req.Type))
	}

	release, err := s.guard.Acquire(ctx, req.LotID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		entry   *lot.Transaction
		updated *lot.InventoryLot
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		l, err := repos.LotRepo().FindByID(ctx, req.LotID)
		if err != nil {
			return err
		}

		opts := make([]lot.TransactionOption, 0, 4)
		if req.ReferenceType != "" && req.ReferenceID != nil {
			opts = append(opts, lot.WithReference(req.ReferenceType, *req.ReferenceID))
		}
		if req.SourceDocNo != "" {
			opts = append(opts, lot.WithSourceDocument(req.SourceDocNo))
		}
		if req.Reason != "" {
			opts = append(opts, lot.WithReason(req.Reason))
		}
		if req.ReferenceData != "" {
			opts = append(opts, lot.WithReferenceData(req.ReferenceData))
		}

		tx, err := lot.NewTransaction(l.ID, req.Type, req.Quantity, l.CurrentQuantity, req.PerformedBy, opts...)
		if err != nil {
			return err
		}

		if err := l.ApplyQuantityChange(req.Quantity, req.PerformedBy); err != nil {
			return err
		}

		if err := repos.LedgerRepo().Insert(ctx, tx); err != nil {
			return err
		}
		if err := repos.LotRepo().SaveWithLock(ctx, l); err != nil {
			return err
		}

		entry = tx
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, updated)

	resp := ToTransactionResponse(entry)
	return &resp, nil
}

// ComputeBalance recomputes a lot's balance from the ledger alone,
// bypassing the persisted quantity cache
func (s *LedgerService) ComputeBalance(ctx context.Context, lotID uuid.UUID) (int64, error) {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		return 0, err
	}
	return s.ledgerRepo.SumByLotID(ctx, lotID)
}

// GetHistory returns the full ordered ledger of a lot
func (s *LedgerService) GetHistory(ctx context.Context, lotID uuid.UUID) ([]TransactionResponse, error) {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		return nil, err
	}
	entries, err := s.ledgerRepo.FindByLotID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	responses := make([]TransactionResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, ToTransactionResponse(e))
	}
	return responses, nil
}

// List returns a paginated ledger slice matching the filter
func (s *LedgerService) List(ctx context.Context, filter lot.TransactionFilter) (*shared.Paginated[TransactionResponse], error) {
	page, err := s.ledgerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]TransactionResponse, 0, len(page.Items))
	for _, e := range page.Items {
		responses = append(responses, ToTransactionResponse(e))
	}
	result := shared.NewPaginated(responses, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// publishDomainEvents publishes all domain events from the lot
func (s *LedgerService) publishDomainEvents(ctx context.Context, l *lot.InventoryLot) {
	if s.eventPublisher == nil || l == nil {
		return
	}
	events := l.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
	l.ClearDomainEvents()
}
