package persistence

import (
	"context"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLotMetricsRepository backs the periodic telemetry collection with
// aggregate lot queries. Voided lots are excluded from both aggregates.
type GormLotMetricsRepository struct {
	db *gorm.DB
}

// NewGormLotMetricsRepository creates a new GormLotMetricsRepository
func NewGormLotMetricsRepository(db *gorm.DB) *GormLotMetricsRepository {
	return &GormLotMetricsRepository{db: db}
}

// GetLotCountByStatus returns the number of non-voided lots per status
func (r *GormLotMetricsRepository) GetLotCountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&lot.InventoryLot{}).
		Select("status, COUNT(*) as count").
		Where("voided = ?", false).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// GetQuantityOnHandByLocation returns total current quantity per storage location
func (r *GormLotMetricsRepository) GetQuantityOnHandByLocation(ctx context.Context) (map[uuid.UUID]int64, error) {
	type row struct {
		StorageLocationID uuid.UUID
		Quantity          int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&lot.InventoryLot{}).
		Select("storage_location_id, COALESCE(SUM(current_quantity), 0) as quantity").
		Where("voided = ?", false).
		Group("storage_location_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	quantities := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		quantities[r.StorageLocationID] = r.Quantity
	}
	return quantities, nil
}

var _ telemetry.LotMetricsProvider = (*GormLotMetricsRepository)(nil)
