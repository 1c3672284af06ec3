package repository

import (
	"context"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

// KnowledgeBasePusher appends a document to an external knowledge base and
// returns the id it was stored under.
type KnowledgeBasePusher interface {
	Push(ctx context.Context, doc *entity.KnowledgeDocument) (string, error)
}

// ContentResolver returns today's content for a restaurant.
type ContentResolver interface {
	ResolveDaily(ctx context.Context, slug, websiteURL string) (*entity.DailyContent, error)
}
