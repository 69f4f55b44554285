package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors. The ledger and saga services return these
// sentinels (or wrapped copies with more context) so callers can branch
// on error kind without string matching.
var (
	ErrNotFound               = NewDomainError("NOT_FOUND", "Resource not found")
	ErrValidation             = NewDomainError("VALIDATION_ERROR", "Invalid input provided")
	ErrReference              = NewDomainError("REFERENCE_ERROR", "Referenced resource does not exist")
	ErrInsufficientQuantity   = NewDomainError("INSUFFICIENT_QUANTITY", "Lot balance cannot go negative")
	ErrInvalidStateTransition = NewDomainError("INVALID_STATE_TRANSITION", "Lot status transition not permitted")
	ErrLockTimeout            = NewDomainError("LOCK_TIMEOUT", "Timed out waiting for lot lock")
	ErrIntegrityMismatch      = NewDomainError("INTEGRITY_MISMATCH", "Persisted balance disagrees with ledger recomputation")
	ErrUnauthorized           = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrAlreadyProcessed       = NewDomainError("ALREADY_PROCESSED", "Record has already been processed")
	ErrConcurrencyConflict    = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrStorage                = NewDomainError("STORAGE_ERROR", "Transient storage failure")
)

// IsTerminal reports whether the error kind must never be retried.
// Terminal failures are returned immediately and leave no partial write;
// everything else may be retried a bounded number of times.
func IsTerminal(err *DomainError) bool {
	switch err.Code {
	case "LOCK_TIMEOUT", "STORAGE_ERROR":
		return false
	}
	return true
}
