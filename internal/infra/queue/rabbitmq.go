package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"news-digest/internal/domain"
	"news-digest/internal/infra/metrics"
)

// RunQueue publishes and consumes pipeline run jobs over AMQP.
type RunQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   zerolog.Logger
}

// NewRunQueue dials RabbitMQ and declares the durable run queue.
func NewRunQueue(amqpURL, queue string, logger zerolog.Logger) (*RunQueue, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &RunQueue{conn: conn, ch: ch, queue: queue, log: logger}, nil
}

// Publish enqueues one run job.
func (q *RunQueue) Publish(ctx context.Context, job domain.RunJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal run job: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish run job: %w", err)
	}
	return nil
}

// Consume delivers run jobs to handler until ctx is done. A handler error
// leaves the message unacked so the broker redelivers it.
func (q *RunQueue) Consume(ctx context.Context, handler func(context.Context, domain.RunJob) error) error {
	deliveries, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", q.queue, err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			var job domain.RunJob
			if err := json.Unmarshal(delivery.Body, &job); err != nil {
				q.log.Error().Err(err).Msg("queue: malformed run job, dropping")
				_ = delivery.Reject(false)
				continue
			}
			if err := handler(ctx, job); err != nil {
				q.log.Error().Err(err).Int("hour", job.Hour).Msg("queue: run job failed")
				_ = delivery.Nack(false, false)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close releases the channel and connection.
func (q *RunQueue) Close() {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
}
