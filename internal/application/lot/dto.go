package lot

import (
	"time"

	domain "github.com/ftzops/backend/internal/domain/lot"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotResponse is the API view of a lot
type LotResponse struct {
	ID                uuid.UUID       `json:"id"`
	PartID            uuid.UUID       `json:"part_id"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	StorageLocationID uuid.UUID       `json:"storage_location_id"`
	Status            string          `json:"status"`
	PriorStatus       *string         `json:"prior_status,omitempty"`
	OriginalQuantity  int64           `json:"original_quantity"`
	CurrentQuantity   int64           `json:"current_quantity"`
	AdmissionDate     time.Time       `json:"admission_date"`
	ManifestNumber    string          `json:"manifest_number"`
	TotalValue        decimal.Decimal `json:"total_value"`
	RemainingValue    decimal.Decimal `json:"remaining_value"`
	LowStock          bool            `json:"low_stock"`
	Voided            bool            `json:"voided"`
	VoidReason        string          `json:"void_reason,omitempty"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToLotResponse converts a lot to its API view
func ToLotResponse(l *domain.InventoryLot, lowStockLevel int64) LotResponse {
	var prior *string
	if l.PriorStatus != nil {
		v := l.PriorStatus.String()
		prior = &v
	}
	return LotResponse{
		ID:                l.ID,
		PartID:            l.PartID,
		CustomerID:        l.CustomerID,
		StorageLocationID: l.StorageLocationID,
		Status:            l.Status.String(),
		PriorStatus:       prior,
		OriginalQuantity:  l.OriginalQuantity,
		CurrentQuantity:   l.CurrentQuantity,
		AdmissionDate:     l.AdmissionDate,
		ManifestNumber:    l.ManifestNumber,
		TotalValue:        l.TotalValue,
		RemainingValue:    l.RemainingValue(),
		LowStock:          l.IsLowStock(lowStockLevel),
		Voided:            l.Voided,
		VoidReason:        l.VoidReason,
		Version:           l.Version,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}
