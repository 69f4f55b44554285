package shipment

import (
	"context"
	"time"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntrySummaryResponse is the API view of a customs entry filing
type EntrySummaryResponse struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	PreshipmentID uuid.UUID       `json:"preshipment_id"`
	EntryNumber   string          `json:"entry_number"`
	FiledAt       time.Time       `json:"filed_at"`
	DutyAmount    decimal.Decimal `json:"duty_amount"`
	Status        string          `json:"status"`
}

// ToEntrySummaryResponse converts an entry filing to its API view
func ToEntrySummaryResponse(e *lot.EntrySummary) EntrySummaryResponse {
	return EntrySummaryResponse{
		ID:            e.ID,
		CustomerID:    e.CustomerID,
		PreshipmentID: e.PreshipmentID,
		EntryNumber:   e.EntryNumber,
		FiledAt:       e.FiledAt,
		DutyAmount:    e.DutyAmount,
		Status:        e.Status,
	}
}

// EntrySummaryService answers read queries over customs entry filings.
// Filings arrive from the broker feed outside this service; nothing here
// mutates them.
type EntrySummaryService struct {
	entries lot.EntrySummaryRepository
}

// NewEntrySummaryService creates a new EntrySummaryService
func NewEntrySummaryService(entries lot.EntrySummaryRepository) *EntrySummaryService {
	return &EntrySummaryService{entries: entries}
}

// GetByID returns one entry filing
func (s *EntrySummaryService) GetByID(ctx context.Context, id uuid.UUID) (*EntrySummaryResponse, error) {
	e, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToEntrySummaryResponse(e)
	return &resp, nil
}

// ListByPreshipment returns the filings referencing one shipment
func (s *EntrySummaryService) ListByPreshipment(ctx context.Context, preshipmentID uuid.UUID) ([]EntrySummaryResponse, error) {
	entries, err := s.entries.FindByPreshipmentID(ctx, preshipmentID)
	if err != nil {
		return nil, err
	}
	responses := make([]EntrySummaryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, ToEntrySummaryResponse(e))
	}
	return responses, nil
}

// ListByCustomer returns a customer's filings, paginated
func (s *EntrySummaryService) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[EntrySummaryResponse], error) {
	page, err := s.entries.ListByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]EntrySummaryResponse, 0, len(page.Items))
	for _, e := range page.Items {
		responses = append(responses, ToEntrySummaryResponse(e))
	}
	result := shared.NewPaginated(responses, page.Total, page.Page, page.PageSize)
	return &result, nil
}
