package repository

import (
	"context"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

// QueueRepository defines a FIFO queue of scrape jobs.
type QueueRepository interface {
	// Push adds a job to the end of the queue.
	Push(ctx context.Context, job *entity.ScrapeJob) error
	// Pop removes and returns the job at the front, or ErrQueueEmpty.
	Pop(ctx context.Context) (*entity.ScrapeJob, error)
	// Size returns the current number of jobs in the queue.
	Size(ctx context.Context) (int64, error)
}
