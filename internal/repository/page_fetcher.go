package repository

import (
	"context"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

// PageFetcher defines the contract for fetching a single web page.
type PageFetcher interface {
	// Fetch never returns an error: every failure is described by the
	// returned page's Outcome and ErrorReason.
	Fetch(ctx context.Context, url string) *entity.CrawledPage
}
