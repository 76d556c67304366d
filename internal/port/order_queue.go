package port

import (
	"context"
	"time"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
)

// Delivery is one received message plus the token needed to settle it.
// ReceiveCount counts deliveries of the same message, best effort: backends
// that only expose a redelivered flag report at most 2.
type Delivery struct {
	Message      domain.OrderMessage
	Receipt      string
	ReceiveCount int
}

// OrderQueue is an at-least-once, visibility-timeout message queue. A
// received message stays hidden from other consumers until it is deleted,
// released, or its visibility window lapses; consumers must therefore treat
// processing as safe to repeat.
type OrderQueue interface {
	// Send durably enqueues a message, provisioning the queue on first use.
	Send(ctx context.Context, msg domain.OrderMessage) error

	// Receive long-polls for up to max messages, waiting at most wait.
	Receive(ctx context.Context, max int, wait time.Duration) ([]Delivery, error)

	// Delete permanently removes a message. Call only after the unit of
	// work it triggered has been durably committed.
	Delete(ctx context.Context, receipt string) error

	// Release returns a message to the queue ahead of its visibility
	// timeout so another receive can pick it up.
	Release(ctx context.Context, receipt string) error
}
