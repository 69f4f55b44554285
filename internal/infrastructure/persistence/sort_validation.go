package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// Per-entity sort field whitelists. OrderBy values arrive via query
// strings, so anything outside these sets never reaches the SQL.

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// LotSortFields contains allowed sort fields for inventory lots
var LotSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"status":           true,
	"current_quantity": true,
	"admission_date":   true,
	"manifest_number":  true,
	"total_value":      true,
}

// TransactionSortFields contains allowed sort fields for ledger transactions
var TransactionSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"occurred_at":   true,
	"type":          true,
	"quantity":      true,
	"balance_after": true,
}

// PreadmissionSortFields contains allowed sort fields for admission filings
var PreadmissionSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"status":           true,
	"manifest_number":  true,
	"expected_arrival": true,
	"quantity":         true,
	"declared_value":   true,
	"processed_at":     true,
}

// PreshipmentSortFields contains allowed sort fields for shipment requests
var PreshipmentSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"status":          true,
	"shipment_number": true,
	"destination":     true,
	"allocated_at":    true,
	"shipped_at":      true,
}

// EntrySummarySortFields contains allowed sort fields for customs entry filings
var EntrySummarySortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"entry_number": true,
	"filed_at":     true,
	"duty_amount":  true,
	"status":       true,
}
