// Package lot exposes the lot lifecycle operations that are not ledger
// movements in themselves: holds, voids, queries, valuation and the
// customs document attachments.
package lot

import (
	"context"
	"fmt"

	"github.com/ftzops/backend/internal/application/ledger"
	domain "github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service handles lot lifecycle and query operations
type Service struct {
	scope          ledger.TransactionScope
	guard          domain.Guard
	lots           domain.LotRepository
	transactions   domain.TransactionRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	lowStockLevel  int64
}

// NewService creates a new lot Service
func NewService(
	scope ledger.TransactionScope,
	guard domain.Guard,
	lots domain.LotRepository,
	transactions domain.TransactionRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		scope:         scope,
		guard:         guard,
		lots:          lots,
		transactions:  transactions,
		logger:        logger,
		lowStockLevel: 10,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLowStockLevel overrides the informational low stock threshold
func (s *Service) SetLowStockLevel(level int64) {
	s.lowStockLevel = level
}

// GetByID returns one lot
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*LotResponse, error) {
	l, err := s.lots.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToLotResponse(l, s.lowStockLevel)
	return &resp, nil
}

// GetForCustomer returns one lot, rejecting lots owned by someone else.
// Customer-scoped API callers see other customers' lots as absent, not
// as forbidden, so lot existence does not leak across customers.
func (s *Service) GetForCustomer(ctx context.Context, customerID, id uuid.UUID) (*LotResponse, error) {
	l, err := s.lots.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.CustomerID != customerID {
		return nil, shared.NewDomainError("NOT_FOUND", "Lot not found")
	}
	resp := ToLotResponse(l, s.lowStockLevel)
	return &resp, nil
}

// List returns lots matching the filter
func (s *Service) List(ctx context.Context, filter domain.LotFilter) (*shared.Paginated[LotResponse], error) {
	page, err := s.lots.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]LotResponse, 0, len(page.Items))
	for _, l := range page.Items {
		responses = append(responses, ToLotResponse(l, s.lowStockLevel))
	}
	result := shared.NewPaginated(responses, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// PlaceHold freezes a lot under its guard
func (s *Service) PlaceHold(ctx context.Context, lotID uuid.UUID, reason string, actor uuid.UUID) (*LotResponse, error) {
	return s.mutate(ctx, lotID, func(l *domain.InventoryLot) error {
		return l.PlaceHold(reason, actor)
	})
}

// ReleaseHold reverses an explicit hold under the lot's guard
func (s *Service) ReleaseHold(ctx context.Context, lotID uuid.UUID, actor uuid.UUID) (*LotResponse, error) {
	return s.mutate(ctx, lotID, func(l *domain.InventoryLot) error {
		return l.ReleaseHold(actor)
	})
}

// Void terminally cancels a lot. The balance is zeroed through a single
// compensating REMOVAL ledger entry written in the same transaction as the
// lot update, so the ledger still sums to the lot balance afterwards.
func (s *Service) Void(ctx context.Context, lotID uuid.UUID, reason string, actor uuid.UUID) (*LotResponse, error) {
	release, err := s.guard.Acquire(ctx, lotID)
	if err != nil {
		return nil, err
	}
	defer release()

	var voided *domain.InventoryLot
	err = s.scope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		l, err := repos.LotRepo().FindByID(ctx, lotID)
		if err != nil {
			return err
		}

		balanceBefore := l.CurrentQuantity
		compensation, err := l.Void(reason, actor)
		if err != nil {
			return err
		}

		if compensation != 0 {
			tx, err := domain.NewTransaction(
				l.ID, domain.TransactionTypeRemoval, compensation, balanceBefore, actor,
				domain.WithReason(fmt.Sprintf("lot voided: %s", reason)))
			if err != nil {
				return err
			}
			if err := repos.LedgerRepo().Insert(ctx, tx); err != nil {
				return err
			}
		}

		if err := repos.LotRepo().SaveWithLock(ctx, l); err != nil {
			return err
		}
		voided = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, voided)

	s.logger.Info("lot voided",
		zap.String("lot_id", lotID.String()),
		zap.String("reason", reason))

	resp := ToLotResponse(voided, s.lowStockLevel)
	return &resp, nil
}

// mutate runs a lot mutation under guard, scope and optimistic locking
func (s *Service) mutate(ctx context.Context, lotID uuid.UUID, fn func(*domain.InventoryLot) error) (*LotResponse, error) {
	release, err := s.guard.Acquire(ctx, lotID)
	if err != nil {
		return nil, err
	}
	defer release()

	var updated *domain.InventoryLot
	err = s.scope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		l, err := repos.LotRepo().FindByID(ctx, lotID)
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
		if err := repos.LotRepo().SaveWithLock(ctx, l); err != nil {
			return err
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, updated)

	resp := ToLotResponse(updated, s.lowStockLevel)
	return &resp, nil
}

// Valuation aggregates the remaining declared value of a customer's
// non-voided lots, grouped by part
type Valuation struct {
	CustomerID uuid.UUID       `json:"customer_id"`
	TotalValue decimal.Decimal `json:"total_value"`
	TotalUnits int64           `json:"total_units"`
	Lines      []ValuationLine `json:"lines"`
}

// ValuationLine is the per-part aggregate of a valuation
type ValuationLine struct {
	PartID uuid.UUID       `json:"part_id"`
	Lots   int             `json:"lots"`
	Units  int64           `json:"units"`
	Value  decimal.Decimal `json:"value"`
}

// Valuate computes the remaining value of a customer's inventory
func (s *Service) Valuate(ctx context.Context, customerID uuid.UUID) (*Valuation, error) {
	voided := false
	filter := domain.LotFilter{Filter: shared.DefaultFilter(), CustomerID: &customerID, Voided: &voided}
	filter.PageSize = 500

	valuation := &Valuation{CustomerID: customerID, TotalValue: decimal.Zero}
	byPart := make(map[uuid.UUID]*ValuationLine)

	for page := 1; ; page++ {
		filter.Page = page
		lots, err := s.lots.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, l := range lots.Items {
			line, ok := byPart[l.PartID]
			if !ok {
				line = &ValuationLine{PartID: l.PartID, Value: decimal.Zero}
				byPart[l.PartID] = line
			}
			line.Lots++
			line.Units += l.CurrentQuantity
			line.Value = line.Value.Add(l.RemainingValue())

			valuation.TotalUnits += l.CurrentQuantity
			valuation.TotalValue = valuation.TotalValue.Add(l.RemainingValue())
		}
		if page >= lots.TotalPages || len(lots.Items) == 0 {
			break
		}
	}

	valuation.Lines = make([]ValuationLine, 0, len(byPart))
	for _, line := range byPart {
		valuation.Lines = append(valuation.Lines, *line)
	}

	return valuation, nil
}

// ListLowStock returns non-voided lots at or below the low stock threshold
func (s *Service) ListLowStock(ctx context.Context, customerID *uuid.UUID) ([]LotResponse, error) {
	filter := domain.LotFilter{
		Filter:     shared.DefaultFilter(),
		CustomerID: customerID,
		Statuses:   []domain.LotStatus{domain.LotStatusInStock, domain.LotStatusOnHold},
	}
	filter.PageSize = 500

	var out []LotResponse
	for page := 1; ; page++ {
		filter.Page = page
		lots, err := s.lots.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, l := range lots.Items {
			if l.IsLowStock(s.lowStockLevel) {
				out = append(out, ToLotResponse(l, s.lowStockLevel))
			}
		}
		if page >= lots.TotalPages || len(lots.Items) == 0 {
			break
		}
	}
	return out, nil
}

func (s *Service) publishDomainEvents(ctx context.Context, l *domain.InventoryLot) {
	if s.eventPublisher == nil || l == nil {
		return
	}
	events := l.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	l.ClearDomainEvents()
}
