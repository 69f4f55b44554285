package admission

import (
	"time"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PreadmissionResponse is the API view of a filing
type PreadmissionResponse struct {
	ID                uuid.UUID       `json:"id"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	PartID            uuid.UUID       `json:"part_id"`
	StorageLocationID uuid.UUID       `json:"storage_location_id"`
	Status            string          `json:"status"`
	Quantity          int64           `json:"quantity"`
	ManifestNumber    string          `json:"manifest_number"`
	ExpectedArrival   time.Time       `json:"expected_arrival"`
	DeclaredValue     decimal.Decimal `json:"declared_value"`
	ProcessedToLotID  *uuid.UUID      `json:"processed_to_lot_id,omitempty"`
	ProcessedAt       *time.Time      `json:"processed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToPreadmissionResponse converts a filing to its API view
func ToPreadmissionResponse(p *lot.Preadmission) PreadmissionResponse {
	return PreadmissionResponse{
		ID:                p.ID,
		CustomerID:        p.CustomerID,
		PartID:            p.PartID,
		StorageLocationID: p.StorageLocationID,
		Status:            p.Status.String(),
		Quantity:          p.Quantity,
		ManifestNumber:    p.ManifestNumber,
		ExpectedArrival:   p.ExpectedArrival,
		DeclaredValue:     p.DeclaredValue,
		ProcessedToLotID:  p.ProcessedToLotID,
		ProcessedAt:       p.ProcessedAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// LotSummary is the compact lot view returned from admission and shipment flows
type LotSummary struct {
	ID              uuid.UUID `json:"id"`
	PartID          uuid.UUID `json:"part_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	Status          string    `json:"status"`
	CurrentQuantity int64     `json:"current_quantity"`
	ManifestNumber  string    `json:"manifest_number"`
}

// ToLotSummary converts a lot to its compact view
func ToLotSummary(l *lot.InventoryLot) LotSummary {
	return LotSummary{
		ID:              l.ID,
		PartID:          l.PartID,
		CustomerID:      l.CustomerID,
		Status:          l.Status.String(),
		CurrentQuantity: l.CurrentQuantity,
		ManifestNumber:  l.ManifestNumber,
	}
}
