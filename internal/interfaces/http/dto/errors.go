package dto

import "net/http"

// Domain error codes surfaced by the API. Handlers pass these through
// unchanged so clients can branch on error kind.

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeValidation is used when a request fails input validation
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeReference is used when a referenced part, customer, or location does not exist
	ErrCodeReference = "REFERENCE_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeAlreadyProcessed is used when a filing has already been consumed
	ErrCodeAlreadyProcessed = "ALREADY_PROCESSED"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	// ErrCodeConflict is used for generic resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInsufficientQuantity is used when a withdrawal would overdraw a lot
	ErrCodeInsufficientQuantity = "INSUFFICIENT_QUANTITY"
	// ErrCodeInvalidStateTransition is used when a lot status change is not permitted
	ErrCodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	// ErrCodeIntegrityMismatch is used when a lot balance disagrees with its ledger
	ErrCodeIntegrityMismatch = "INTEGRITY_MISMATCH"
)

// Transient error codes
const (
	// ErrCodeLockTimeout is used when a lot guard could not be acquired in time
	ErrCodeLockTimeout = "LOCK_TIMEOUT"
	// ErrCodeStorage is used for transient storage failures
	ErrCodeStorage = "STORAGE_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeReference:   http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyProcessed:    http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInsufficientQuantity:   http.StatusUnprocessableEntity,
	ErrCodeInvalidStateTransition: http.StatusUnprocessableEntity,
	ErrCodeIntegrityMismatch:      http.StatusConflict,

	// Transient errors
	ErrCodeLockTimeout: http.StatusServiceUnavailable,
	ErrCodeStorage:     http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
