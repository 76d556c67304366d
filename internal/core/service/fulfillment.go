package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
	"github.com/gana36/Prime-Day-Sim/internal/port"
)

const (
	defaultBatchSize   = 10
	defaultWaitTime    = 5 * time.Second
	defaultMaxReceives = 5
	receiveBackoff     = 5 * time.Second
)

// WorkerConfig tunes the fulfillment loop. Zero values fall back to
// defaults.
type WorkerConfig struct {
	// BatchSize caps how many messages one receive may return.
	BatchSize int
	// WaitTime is the long-poll window per receive.
	WaitTime time.Duration
	// MaxReceives parks a message as failed instead of requeueing it
	// forever; it is the dead-letter seam. Zero disables parking.
	MaxReceives int
}

// FulfillmentWorker drains the order queue and settles each intent into a
// committed order plus ledger decrement, or a recorded failure. Messages are
// deleted only after their outcome is durable, so every step is safe to
// repeat on redelivery.
type FulfillmentWorker struct {
	queue        port.OrderQueue
	db           port.DatabaseRepository
	reservations *ReservationService
	logger       *zap.Logger

	batchSize   int
	waitTime    time.Duration
	maxReceives int
}

func NewFulfillmentWorker(queue port.OrderQueue, db port.DatabaseRepository, reservations *ReservationService, cfg WorkerConfig, logger *zap.Logger) *FulfillmentWorker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.WaitTime <= 0 {
		cfg.WaitTime = defaultWaitTime
	}
	if cfg.MaxReceives < 0 {
		cfg.MaxReceives = defaultMaxReceives
	}
	return &FulfillmentWorker{
		queue:        queue,
		db:           db,
		reservations: reservations,
		logger:       logger,
		batchSize:    cfg.BatchSize,
		waitTime:     cfg.WaitTime,
		maxReceives:  cfg.MaxReceives,
	}
}

// Run polls until the context is cancelled. Messages within a batch are
// processed sequentially to keep ledger contention, and with it the Conflict
// rate, bounded.
func (w *FulfillmentWorker) Run(ctx context.Context) error {
	w.logger.Info("fulfillment worker started")
	for {
		deliveries, err := w.queue.Receive(ctx, w.batchSize, w.waitTime)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("fulfillment worker stopped")
				return ctx.Err()
			}
			w.logger.Error("receive failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(receiveBackoff):
			}
			continue
		}

		for _, d := range deliveries {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.process(ctx, d)
		}
	}
}

func (w *FulfillmentWorker) process(ctx context.Context, d port.Delivery) {
	msg := normalize(d.Message)
	logger := w.logger.With(
		zap.String("order_id", msg.OrderID),
		zap.String("product_id", msg.ProductID))

	// Idempotency: a redelivered message whose order already settled must
	// not touch the ledger again.
	existing, err := w.db.GetOrder(ctx, msg.OrderID)
	if err != nil {
		logger.Error("order lookup failed, leaving message for redelivery", zap.Error(err))
		w.release(ctx, d, logger)
		return
	}
	if existing != nil && existing.Status.Terminal() {
		logger.Info("order already settled, deleting redelivered message",
			zap.String("status", string(existing.Status)))
		w.delete(ctx, d, logger)
		return
	}

	if w.maxReceives > 0 && d.ReceiveCount > w.maxReceives {
		logger.Warn("parking message after repeated deliveries",
			zap.Int("receive_count", d.ReceiveCount))
		if w.recordFailure(ctx, msg, logger) {
			w.delete(ctx, d, logger)
		} else {
			w.release(ctx, d, logger)
		}
		return
	}

	order := domain.Order{
		ID:        msg.OrderID,
		UserID:    msg.UserID,
		ProductID: msg.ProductID,
		Quantity:  msg.Quantity,
		CreatedAt: msg.SubmittedAt,
	}

	result, err := w.reservations.ReserveForOrder(ctx, order)
	if err != nil {
		logger.Error("reservation failed, leaving message for redelivery", zap.Error(err))
		w.release(ctx, d, logger)
		return
	}

	switch result.Outcome {
	case domain.ReserveApplied:
		logger.Info("order fulfilled",
			zap.Int("new_count", result.NewCount),
			zap.Int64("new_version", result.NewVersion))
		w.delete(ctx, d, logger)

	case domain.ReserveNotFound, domain.ReserveInsufficientStock:
		// Terminal, non-retryable: record and settle.
		logger.Info("order rejected", zap.String("reason", result.Outcome.String()))
		if w.recordFailure(ctx, msg, logger) {
			w.delete(ctx, d, logger)
		} else {
			w.release(ctx, d, logger)
		}

	case domain.ReserveConflict:
		// Retry budget spent while stock remained: transient contention,
		// let redelivery try again.
		logger.Info("reservation conflicted, releasing for redelivery")
		w.release(ctx, d, logger)
	}
}

func (w *FulfillmentWorker) recordFailure(ctx context.Context, msg domain.OrderMessage, logger *zap.Logger) bool {
	order := domain.Order{
		ID:        msg.OrderID,
		UserID:    msg.UserID,
		ProductID: msg.ProductID,
		Quantity:  msg.Quantity,
		Status:    domain.OrderStatusFailed,
		CreatedAt: msg.SubmittedAt,
	}
	if err := w.db.SaveOrder(ctx, order); err != nil {
		logger.Error("failed to record failed order", zap.Error(err))
		return false
	}
	return true
}

func (w *FulfillmentWorker) delete(ctx context.Context, d port.Delivery, logger *zap.Logger) {
	if err := w.queue.Delete(ctx, d.Receipt); err != nil {
		// The message will come back after the visibility timeout; the
		// terminal-order check makes the replay a no-op.
		logger.Error("failed to delete message", zap.Error(err))
	}
}

func (w *FulfillmentWorker) release(ctx context.Context, d port.Delivery, logger *zap.Logger) {
	if err := w.queue.Release(ctx, d.Receipt); err != nil {
		logger.Error("failed to release message", zap.Error(err))
	}
}

// normalize fills optional wire fields so older producers keep working.
func normalize(msg domain.OrderMessage) domain.OrderMessage {
	if msg.OrderID == "" {
		// Derive the id from the wire fields: redeliveries of an id-less
		// message must map to the same order row to stay deduplicable.
		seed := msg.UserID + "|" + msg.ProductID + "|" + msg.SubmittedAt.UTC().Format(time.RFC3339Nano)
		msg.OrderID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
	}
	if msg.Quantity <= 0 {
		msg.Quantity = 1
	}
	if msg.SubmittedAt.IsZero() {
		msg.SubmittedAt = time.Now().UTC()
	}
	return msg
}
