package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"mavryk-submission-bot/internal/domain"
	"mavryk-submission-bot/internal/infra/metrics"
)

// RabbitReviewQueue implements the review queue over AMQP. Jobs are published
// to the default exchange with the queue name as routing key; the queue is
// durable and messages are persistent.
type RabbitReviewQueue struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	queue      string
	deliveries <-chan amqp.Delivery
}

// NewRabbitReviewQueue connects to the broker and declares the queue.
func NewRabbitReviewQueue(url, queue string) (*RabbitReviewQueue, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitReviewQueue{conn: conn, channel: channel, queue: queue}, nil
}

// Enqueue publishes a review job.
func (q *RabbitReviewQueue) Enqueue(ctx context.Context, job domain.ReviewJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.channel.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Pop blocks until a review job is delivered. Messages with a payload that
// does not decode are rejected without requeue.
func (q *RabbitReviewQueue) Pop(ctx context.Context) (domain.ReviewJob, error) {
	if q.deliveries == nil {
		deliveries, err := q.channel.Consume(q.queue, "", false, false, false, false, nil)
		if err != nil {
			return domain.ReviewJob{}, fmt.Errorf("start consumer: %w", err)
		}
		q.deliveries = deliveries
	}
	for {
		select {
		case <-ctx.Done():
			return domain.ReviewJob{}, ctx.Err()
		case delivery, ok := <-q.deliveries:
			if !ok {
				return domain.ReviewJob{}, errors.New("amqp channel closed")
			}
			var job domain.ReviewJob
			if err := json.Unmarshal(delivery.Body, &job); err != nil {
				_ = delivery.Nack(false, false)
				continue
			}
			if err := delivery.Ack(false); err != nil {
				return domain.ReviewJob{}, fmt.Errorf("ack delivery: %w", err)
			}
			return job, nil
		}
	}
}

// Close releases the channel and connection.
func (q *RabbitReviewQueue) Close() error {
	if err := q.channel.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
