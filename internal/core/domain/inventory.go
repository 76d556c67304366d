package domain

import "time"

// Inventory is the durable ledger row for one product. Count must never go
// negative; Version starts at 1 and increases by exactly 1 on every applied
// decrement, making it the optimistic-lock stamp.
type Inventory struct {
	ProductID string
	Count     int
	Version   int64
	UpdatedAt time.Time
}
