package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mavryk-submission-bot/internal/domain"
	"mavryk-submission-bot/internal/infra/metrics"
)

// RedisReviewQueue implements the review queue on a Redis list.
type RedisReviewQueue struct {
	client *redis.Client
	key    string
}

// NewRedisReviewQueue creates a queue under the given list key.
func NewRedisReviewQueue(client *redis.Client, key string) *RedisReviewQueue {
	return &RedisReviewQueue{client: client, key: key}
}

// Enqueue publishes a review job.
func (q *RedisReviewQueue) Enqueue(ctx context.Context, job domain.ReviewJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Pop blocks until a review job is available.
func (q *RedisReviewQueue) Pop(ctx context.Context) (domain.ReviewJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.ReviewJob{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.ReviewJob{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.ReviewJob{}, err
		}
		if len(res) != 2 {
			return domain.ReviewJob{}, errors.New("redis queue: unexpected response")
		}
		var job domain.ReviewJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return domain.ReviewJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}
