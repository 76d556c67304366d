package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
	"github.com/gana36/Prime-Day-Sim/internal/port"
)

const pollInterval = 5 * time.Millisecond

// MemoryQueue is an in-process order queue with real visibility-timeout
// semantics. It backs tests and single-process development; production uses
// RabbitQueue.
type MemoryQueue struct {
	visibility time.Duration

	mu      sync.Mutex
	entries []*memoryEntry
}

type memoryEntry struct {
	msg          domain.OrderMessage
	receipt      string
	receiveCount int
	visibleAt    time.Time
}

func NewMemoryQueue(visibility time.Duration) *MemoryQueue {
	return &MemoryQueue{visibility: visibility}
}

func (q *MemoryQueue) Send(ctx context.Context, msg domain.OrderMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, &memoryEntry{msg: msg, visibleAt: time.Now()})
	return nil
}

func (q *MemoryQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]port.Delivery, error) {
	deadline := time.Now().Add(wait)
	for {
		if out := q.receiveVisible(max); len(out) > 0 {
			return out, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (q *MemoryQueue) receiveVisible(max int) []port.Delivery {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	var out []port.Delivery
	for _, e := range q.entries {
		if len(out) >= max {
			break
		}
		if e.visibleAt.After(now) {
			continue
		}
		e.receipt = uuid.New().String()
		e.receiveCount++
		e.visibleAt = now.Add(q.visibility)
		out = append(out, port.Delivery{
			Message:      e.msg,
			Receipt:      e.receipt,
			ReceiveCount: e.receiveCount,
		})
	}
	return out
}

// Delete removes the message only if the receipt is still current: a stale
// receipt from before a visibility expiry must not delete a message another
// receive now owns.
func (q *MemoryQueue) Delete(ctx context.Context, receipt string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.receipt == receipt {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (q *MemoryQueue) Release(ctx context.Context, receipt string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.receipt == receipt {
			e.receipt = ""
			e.visibleAt = time.Now()
			return nil
		}
	}
	return nil
}

// Len reports how many messages remain, delivered or not.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
