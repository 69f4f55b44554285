package shipment

import (
	"time"

	"github.com/ftzops/backend/internal/application/ledger"
	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/google/uuid"
)

// ItemResponse is the API view of one shipment line
type ItemResponse struct {
	ID       uuid.UUID `json:"id"`
	LotID    uuid.UUID `json:"lot_id"`
	Quantity int64     `json:"quantity"`
}

// PreshipmentResponse is the API view of a shipment request
type PreshipmentResponse struct {
	ID             uuid.UUID      `json:"id"`
	CustomerID     uuid.UUID      `json:"customer_id"`
	Status         string         `json:"status"`
	ShipmentNumber string         `json:"shipment_number"`
	Destination    string         `json:"destination"`
	Items          []ItemResponse `json:"items"`
	TotalQuantity  int64          `json:"total_quantity"`
	AllocatedAt    *time.Time     `json:"allocated_at,omitempty"`
	ShippedAt      *time.Time     `json:"shipped_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ToPreshipmentResponse converts a shipment request to its API view
func ToPreshipmentResponse(p *lot.Preshipment) PreshipmentResponse {
	items := make([]ItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, ItemResponse{
			ID:       item.ID,
			LotID:    item.LotID,
			Quantity: item.Quantity,
		})
	}
	return PreshipmentResponse{
		ID:             p.ID,
		CustomerID:     p.CustomerID,
		Status:         p.Status.String(),
		ShipmentNumber: p.ShipmentNumber,
		Destination:    p.Destination,
		Items:          items,
		TotalQuantity:  p.TotalQuantity(),
		AllocatedAt:    p.AllocatedAt,
		ShippedAt:      p.ShippedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// AllocationResult is the outcome of allocating a shipment
type AllocationResult struct {
	Preshipment PreshipmentResponse          `json:"preshipment"`
	Withdrawals []ledger.TransactionResponse `json:"withdrawals"`
}
