package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
	"github.com/gana36/Prime-Day-Sim/internal/port"
)

// IntakeService converts a burst of synchronous purchase requests into a
// durable, worker-rate-drained backlog. It never reads or mutates the
// ledger; the enqueue is its only authoritative effect.
type IntakeService struct {
	queue  port.OrderQueue
	db     port.DatabaseRepository
	logger *zap.Logger
}

func NewIntakeService(queue port.OrderQueue, db port.DatabaseRepository, logger *zap.Logger) *IntakeService {
	return &IntakeService{queue: queue, db: db, logger: logger}
}

// Purchase enqueues an order intent and returns the pending order
// descriptor. The response is provisional: the true outcome only exists
// once the fulfillment worker has settled the order.
func (s *IntakeService) Purchase(ctx context.Context, userID, productID string, quantity int) (domain.Order, error) {
	if quantity <= 0 {
		quantity = 1
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
	}

	msg := domain.OrderMessage{
		OrderID:     order.ID,
		UserID:      userID,
		ProductID:   productID,
		Quantity:    quantity,
		SubmittedAt: now,
	}
	if err := s.queue.Send(ctx, msg); err != nil {
		return domain.Order{}, fmt.Errorf("enqueue order: %w", err)
	}

	// Best effort: the pending row makes the order queryable right away, but
	// the worker upserts the terminal row either way, so a failure here must
	// not fail a purchase that is already durably queued.
	if err := s.db.SaveOrder(ctx, order); err != nil {
		s.logger.Warn("failed to persist pending order",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	return order, nil
}

// GetOrder exposes the status lookup for orders accepted through intake.
func (s *IntakeService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.db.GetOrder(ctx, orderID)
}
