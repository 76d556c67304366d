package domain

import "time"

// OrderMessage is the order-intent wire format carried by the queue.
// order_id and submitted_at are optional for forward compatibility;
// consumers fill in what is missing.
type OrderMessage struct {
	OrderID     string    `json:"order_id,omitempty"`
	UserID      string    `json:"user_id"`
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
}
