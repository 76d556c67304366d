package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
	"github.com/gana36/Prime-Day-Sim/internal/port"
)

const prefetchCount = 50

var ErrQueueClosed = errors.New("queue connection closed")

// RabbitQueue implements the order queue on a durable RabbitMQ queue with
// manual acknowledgement: ack is delete, nack-with-requeue is release, and a
// dropped consumer connection plays the role of the visibility timeout.
type RabbitQueue struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	name   string
	logger *zap.Logger

	pubMu sync.Mutex

	mu         sync.Mutex
	declared   bool
	deliveries <-chan amqp.Delivery
	inflight   map[string]amqp.Delivery
}

func NewRabbitQueue(url, name string, logger *zap.Logger) (*RabbitQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	logger.Info("connected to rabbitmq", zap.String("queue", name))

	return &RabbitQueue{
		conn:     conn,
		ch:       ch,
		name:     name,
		logger:   logger,
		inflight: make(map[string]amqp.Delivery),
	}, nil
}

// ensureQueue lazily declares the durable queue on first use, matching the
// provisioning behavior producers and consumers both rely on. Quorum queues
// track a per-message delivery count, which the parking logic needs; classic
// queues only expose a redelivered flag.
func (q *RabbitQueue) ensureQueue() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.declared {
		return nil
	}
	args := amqp.Table{"x-queue-type": "quorum"}
	if _, err := q.ch.QueueDeclare(q.name, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	q.declared = true
	return nil
}

func (q *RabbitQueue) Send(ctx context.Context, msg domain.OrderMessage) error {
	if err := q.ensureQueue(); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	q.pubMu.Lock()
	defer q.pubMu.Unlock()
	err = q.ch.PublishWithContext(ctx, "", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

func (q *RabbitQueue) ensureConsumer() (<-chan amqp.Delivery, error) {
	if err := q.ensureQueue(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}

	if err := q.ch.Qos(prefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := q.ch.Consume(q.name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume queue: %w", err)
	}
	q.deliveries = deliveries
	q.logger.Info("consuming queue", zap.String("queue", q.name))
	return deliveries, nil
}

func (q *RabbitQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]port.Delivery, error) {
	deliveries, err := q.ensureConsumer()
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	var out []port.Delivery

	// Block for the first message, then drain whatever else is ready.
	select {
	case d, ok := <-deliveries:
		if !ok {
			return nil, ErrQueueClosed
		}
		if dv, ok := q.wrap(d); ok {
			out = append(out, dv)
		}
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for len(out) < max {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return out, nil
			}
			if dv, ok := q.wrap(d); ok {
				out = append(out, dv)
			}
		default:
			return out, nil
		}
	}
	return out, nil
}

// wrap converts an AMQP delivery into a port.Delivery, registering the
// receipt. Malformed payloads are dropped without requeue: they can never
// succeed and would otherwise cycle forever.
func (q *RabbitQueue) wrap(d amqp.Delivery) (port.Delivery, bool) {
	var msg domain.OrderMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		q.logger.Warn("dropping malformed message", zap.Error(err))
		_ = d.Nack(false, false)
		return port.Delivery{}, false
	}

	receipt := uuid.New().String()
	q.mu.Lock()
	q.inflight[receipt] = d
	q.mu.Unlock()

	// Quorum queues report prior deliveries in x-delivery-count. Fall back
	// to the redelivered flag when the header is absent.
	count := 1
	if v, ok := d.Headers["x-delivery-count"]; ok {
		if n, ok := v.(int64); ok {
			count = int(n) + 1
		}
	} else if d.Redelivered {
		count = 2
	}

	return port.Delivery{Message: msg, Receipt: receipt, ReceiveCount: count}, true
}

func (q *RabbitQueue) take(receipt string) (amqp.Delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	d, ok := q.inflight[receipt]
	if ok {
		delete(q.inflight, receipt)
	}
	return d, ok
}

func (q *RabbitQueue) Delete(ctx context.Context, receipt string) error {
	d, ok := q.take(receipt)
	if !ok {
		return nil
	}
	if err := d.Ack(false); err != nil {
		return fmt.Errorf("ack message: %w", err)
	}
	return nil
}

func (q *RabbitQueue) Release(ctx context.Context, receipt string) error {
	d, ok := q.take(receipt)
	if !ok {
		return nil
	}
	if err := d.Nack(false, true); err != nil {
		return fmt.Errorf("nack message: %w", err)
	}
	return nil
}

func (q *RabbitQueue) Close() {
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
}
