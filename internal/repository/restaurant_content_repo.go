package repository

import (
	"context"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

// RestaurantContentRepository stores the latest scrape result per restaurant.
type RestaurantContentRepository interface {
	// Save stores the content for a slug, replacing any previous scrape.
	Save(ctx context.Context, content *entity.RestaurantContent) error
	// FindBySlug returns ErrNotFound when the slug was never scraped.
	FindBySlug(ctx context.Context, slug string) (*entity.RestaurantContent, error)
	// FindByWebsite returns ErrNotFound when no scrape used this URL.
	FindByWebsite(ctx context.Context, websiteURL string) (*entity.RestaurantContent, error)
}
