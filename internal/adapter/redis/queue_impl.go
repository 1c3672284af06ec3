package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/internal/repository"
)

const scrapeQueueKey = "scraper:queue"

// QueueRepoImpl provides a concrete implementation for the QueueRepository interface using Redis Lists.
type QueueRepoImpl struct {
	client *redis.Client
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client *redis.Client) *QueueRepoImpl {
	return &QueueRepoImpl{client: client}
}

// Push adds a job to the left side of the Redis list.
func (r *QueueRepoImpl) Push(ctx context.Context, job *entity.ScrapeJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode scrape job: %w", err)
	}
	return r.client.LPush(ctx, scrapeQueueKey, payload).Err()
}

// Pop removes and returns the oldest job, or repository.ErrQueueEmpty.
func (r *QueueRepoImpl) Pop(ctx context.Context) (*entity.ScrapeJob, error) {
	payload, err := r.client.RPop(ctx, scrapeQueueKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrQueueEmpty
		}
		return nil, err
	}

	var job entity.ScrapeJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("failed to decode scrape job: %w", err)
	}
	return &job, nil
}

// Size returns the current number of items in the queue.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, scrapeQueueKey).Result()
}
