package lot

import (
	"time"

	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntrySummary is the customs entry filing generated from shipped goods.
// Rows are produced by the filing pipeline and are read-only here; the
// ledger never mutates them.
type EntrySummary struct {
	shared.BaseEntity
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	PreshipmentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	EntryNumber   string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	FiledAt       time.Time       `gorm:"type:timestamptz;not null"`
	DutyAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status        string          `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (EntrySummary) TableName() string {
	return "entry_summaries"
}
