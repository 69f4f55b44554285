package lot

// LotStatus represents the lifecycle status of an inventory lot
type LotStatus string

const (
	// LotStatusPending is a freshly created lot awaiting its admission transaction
	LotStatusPending LotStatus = "PENDING"
	// LotStatusInStock is a lot holding withdrawable quantity
	LotStatusInStock LotStatus = "IN_STOCK"
	// LotStatusOnHold is a lot frozen by an explicit hold; reversible
	LotStatusOnHold LotStatus = "ON_HOLD"
	// LotStatusDepleted is a lot whose balance reached zero through withdrawals
	LotStatusDepleted LotStatus = "DEPLETED"
	// LotStatusVoided is a terminally cancelled lot; kept for audit, never mutated again
	LotStatusVoided LotStatus = "VOIDED"
)

// String returns the string representation of LotStatus
func (s LotStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid LotStatus
func (s LotStatus) IsValid() bool {
	switch s {
	case LotStatusPending, LotStatusInStock, LotStatusOnHold, LotStatusDepleted, LotStatusVoided:
		return true
	}
	return false
}

// IsTerminal returns true if no further transition may leave this status
func (s LotStatus) IsTerminal() bool {
	return s == LotStatusVoided
}

// CanTransitionTo checks if the status can transition to the target status.
// Holds are reversible to any prior non-terminal status; everything may be
// voided except a lot that is already voided.
func (s LotStatus) CanTransitionTo(target LotStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch target {
	case LotStatusOnHold, LotStatusVoided:
		return true
	case LotStatusInStock:
		return s == LotStatusPending || s == LotStatusOnHold || s == LotStatusDepleted
	case LotStatusDepleted:
		return s == LotStatusInStock || s == LotStatusOnHold
	case LotStatusPending:
		// Only a hold release can put a lot back to PENDING
		return s == LotStatusOnHold
	}
	return false
}
