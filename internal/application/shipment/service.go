// Package shipment implements the outbound flow: building preshipments and
// allocating them, which withdraws every item from its source lot through
// the ledger and reverses already-withdrawn items when a later one fails.
package shipment

import (
	"context"
	"fmt"

	"github.com/ftzops/backend/internal/application/ledger"
	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles preshipment requests and their allocation against lots
type Service struct {
	ledgerSvc      *ledger.LedgerService
	scope          ledger.TransactionScope
	preshipments   lot.PreshipmentRepository
	lots           lot.LotRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new shipment Service
func NewService(
	ledgerSvc *ledger.LedgerService,
	scope ledger.TransactionScope,
	preshipments lot.PreshipmentRepository,
	lots lot.LotRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		ledgerSvc:    ledgerSvc,
		scope:        scope,
		preshipments: preshipments,
		lots:         lots,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ItemRequest is one lot line of a shipment request
type ItemRequest struct {
	LotID    uuid.UUID `json:"lot_id" binding:"required"`
	Quantity int64     `json:"quantity" binding:"required,gt=0"`
}

// CreatePreshipmentRequest describes a new outbound request
type CreatePreshipmentRequest struct {
	CustomerID     uuid.UUID     `json:"customer_id" binding:"required"`
	ShipmentNumber string        `json:"shipment_number" binding:"required"`
	Destination    string        `json:"destination" binding:"required"`
	Items          []ItemRequest `json:"items" binding:"required,min=1,dive"`
	CreatedBy      uuid.UUID     `json:"-"`
}

// Create builds a draft preshipment with its items
func (s *Service) Create(ctx context.Context, req CreatePreshipmentRequest) (*PreshipmentResponse, error) {
	p, err := lot.NewPreshipment(req.CustomerID, req.ShipmentNumber, req.Destination, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if err := p.AddItem(item.LotID, item.Quantity); err != nil {
			return nil, err
		}
	}
	if err := s.preshipments.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPreshipmentResponse(p)
	return &resp, nil
}

// Allocate withdraws every item of a draft shipment from its source lot.
// All items are validated before anything is written, so the common failure
// (one lot cannot satisfy its line) names the offending lot and leaves the
// ledger untouched. If a later withdrawal still fails, the earlier ones are
// reversed with compensating adjustments before the error is returned.
func (s *Service) Allocate(ctx context.Context, preshipmentID, actor uuid.UUID) (*AllocationResult, error) {
	p, err := s.preshipments.FindByID(ctx, preshipmentID)
	if err != nil {
		return nil, err
	}
	if p.Status != lot.PreshipmentStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Preshipment %s is %s, only drafts can be allocated", p.ID, p.Status))
	}
	if len(p.Items) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Cannot allocate a shipment with no items")
	}

	if err := s.validateItems(ctx, p); err != nil {
		return nil, err
	}

	// Withdraw item by item. Each Append serializes on its lot guard and
	// commits atomically, so a failure leaves exactly the prior items done.
	done := make([]ledger.TransactionResponse, 0, len(p.Items))
	for _, item := range p.Items {
		resp, err := s.ledgerSvc.Append(ctx, ledger.AppendTransactionRequest{
			LotID:         item.LotID,
			Type:          lot.TransactionTypeShipment,
			Quantity:      -item.Quantity,
			SourceDocNo:   p.ShipmentNumber,
			ReferenceType: "PRESHIPMENT",
			ReferenceID:   &p.ID,
			PerformedBy:   actor,
		})
		if err != nil {
			s.compensate(ctx, p.ID, done, actor)
			return nil, err
		}
		done = append(done, *resp)
	}

	if err := s.markAllocated(ctx, p, actor); err != nil {
		s.compensate(ctx, p.ID, done, actor)
		return nil, err
	}

	s.publishDomainEvents(ctx, p)

	s.logger.Info("preshipment allocated",
		zap.String("preshipment_id", p.ID.String()),
		zap.Int("items", len(done)),
		zap.Int64("total_quantity", p.TotalQuantity()))

	return &AllocationResult{
		Preshipment: ToPreshipmentResponse(p),
		Withdrawals: done,
	}, nil
}

// validateItems checks every line against the current lot state so the
// whole request is rejected before any ledger write
func (s *Service) validateItems(ctx context.Context, p *lot.Preshipment) error {
	for _, item := range p.Items {
		l, err := s.lots.FindByID(ctx, item.LotID)
		if err != nil {
			return shared.NewDomainError("REFERENCE_ERROR",
				fmt.Sprintf("Lot %s does not exist", item.LotID))
		}
		if l.CustomerID != p.CustomerID {
			return shared.NewDomainError("REFERENCE_ERROR",
				fmt.Sprintf("Lot %s does not belong to customer %s", l.ID, p.CustomerID))
		}
		if l.Voided || l.Status == lot.LotStatusVoided {
			return shared.NewDomainError("INVALID_STATE_TRANSITION",
				fmt.Sprintf("Lot %s is voided", l.ID))
		}
		if l.Status == lot.LotStatusOnHold {
			return shared.NewDomainError("INVALID_STATE_TRANSITION",
				fmt.Sprintf("Lot %s is on hold", l.ID))
		}
		if !l.CanWithdraw(item.Quantity) {
			return shared.NewDomainError("INSUFFICIENT_QUANTITY",
				fmt.Sprintf("Lot %s holds %d units, cannot ship %d", l.ID, l.CurrentQuantity, item.Quantity))
		}
	}
	return nil
}

func (s *Service) markAllocated(ctx context.Context, p *lot.Preshipment, actor uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		current, err := repos.PreshipmentRepo().FindByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := current.MarkAllocated(actor); err != nil {
			return err
		}
		if err := repos.PreshipmentRepo().SaveWithLock(ctx, current); err != nil {
			return err
		}
		*p = *current
		return nil
	})
}

// compensate reverses completed withdrawals with positive adjustments.
// Reversal failures are logged and left to the reconciliation sweep; the
// shipment stays draft either way.
func (s *Service) compensate(ctx context.Context, preshipmentID uuid.UUID, done []ledger.TransactionResponse, actor uuid.UUID) {
	for i := len(done) - 1; i >= 0; i-- {
		w := done[i]
		_, err := s.ledgerSvc.Append(ctx, ledger.AppendTransactionRequest{
			LotID:         w.LotID,
			Type:          lot.TransactionTypeAdjustment,
			Quantity:      -w.Quantity,
			Reason:        "shipment allocation reversal",
			ReferenceType: "PRESHIPMENT",
			ReferenceID:   &preshipmentID,
			PerformedBy:   actor,
		})
		if err != nil {
			s.logger.Error("allocation reversal failed",
				zap.String("preshipment_id", preshipmentID.String()),
				zap.String("lot_id", w.LotID.String()),
				zap.Int64("quantity", w.Quantity),
				zap.Error(err))
		}
	}
	s.logger.Warn("preshipment allocation compensated",
		zap.String("preshipment_id", preshipmentID.String()),
		zap.Int("reversed", len(done)))
}

// MarkShipped records physical departure of an allocated shipment
func (s *Service) MarkShipped(ctx context.Context, preshipmentID, actor uuid.UUID) (*PreshipmentResponse, error) {
	p, err := s.preshipments.FindByID(ctx, preshipmentID)
	if err != nil {
		return nil, err
	}
	if err := p.MarkShipped(actor); err != nil {
		return nil, err
	}
	if err := s.preshipments.SaveWithLock(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPreshipmentResponse(p)
	return &resp, nil
}

// Cancel withdraws a draft shipment request
func (s *Service) Cancel(ctx context.Context, preshipmentID, actor uuid.UUID) (*PreshipmentResponse, error) {
	p, err := s.preshipments.FindByID(ctx, preshipmentID)
	if err != nil {
		return nil, err
	}
	if err := p.Cancel(actor); err != nil {
		return nil, err
	}
	if err := s.preshipments.SaveWithLock(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPreshipmentResponse(p)
	return &resp, nil
}

// GetByID returns one shipment request with its items
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*PreshipmentResponse, error) {
	p, err := s.preshipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPreshipmentResponse(p)
	return &resp, nil
}

// List returns shipment requests matching the filter
func (s *Service) List(ctx context.Context, filter lot.PreshipmentFilter) (*shared.Paginated[PreshipmentResponse], error) {
	page, err := s.preshipments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]PreshipmentResponse, 0, len(page.Items))
	for _, p := range page.Items {
		responses = append(responses, ToPreshipmentResponse(p))
	}
	result := shared.NewPaginated(responses, page.Total, page.Page, page.PageSize)
	return &result, nil
}

func (s *Service) publishDomainEvents(ctx context.Context, p *lot.Preshipment) {
	if s.eventPublisher == nil {
		return
	}
	events := p.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	p.ClearDomainEvents()
}
