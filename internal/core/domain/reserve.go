package domain

// ReserveOutcome classifies the result of a reservation attempt. Conflict is
// an expected outcome under contention, not a fault, which is why these are
// values rather than errors.
type ReserveOutcome int

const (
	ReserveApplied ReserveOutcome = iota
	ReserveInsufficientStock
	ReserveNotFound
	ReserveConflict
)

func (o ReserveOutcome) String() string {
	switch o {
	case ReserveApplied:
		return "applied"
	case ReserveInsufficientStock:
		return "insufficient_stock"
	case ReserveNotFound:
		return "not_found"
	case ReserveConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// ReserveResult carries the post-decrement ledger state when Outcome is
// ReserveApplied; NewCount and NewVersion are meaningless otherwise.
type ReserveResult struct {
	Outcome    ReserveOutcome
	NewCount   int
	NewVersion int64
}
