package repository

import (
	"context"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

// FailedFetchRepository keeps track of pages that could not be fetched.
type FailedFetchRepository interface {
	// SaveOrUpdate creates or updates a record, incrementing its retry count.
	SaveOrUpdate(ctx context.Context, failed *entity.FailedFetch) error
	// FindByURL returns ErrNotFound when the URL has no failure on record.
	FindByURL(ctx context.Context, url string) (*entity.FailedFetch, error)
	// FindBySlug lists failures recorded for a restaurant.
	FindBySlug(ctx context.Context, slug string) ([]*entity.FailedFetch, error)
	// Delete removes a record, typically after a successful fetch.
	Delete(ctx context.Context, url string) error
}
