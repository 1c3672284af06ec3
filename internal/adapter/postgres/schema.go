package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS restaurant_content (
	slug          TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	website_url   TEXT NOT NULL,
	full_content  TEXT NOT NULL DEFAULT '',
	daily_special TEXT NOT NULL DEFAULT '',
	facts         JSONB NOT NULL DEFAULT '[]',
	knowledge     JSONB NOT NULL DEFAULT '[]',
	content_hash  TEXT NOT NULL,
	scraped_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS restaurant_content_website_idx ON restaurant_content (website_url);

CREATE TABLE IF NOT EXISTS failed_fetches (
	url          TEXT PRIMARY KEY,
	slug         TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	http_status  INTEGER NOT NULL DEFAULT 0,
	reason       TEXT NOT NULL DEFAULT '',
	last_attempt TIMESTAMPTZ NOT NULL,
	retry_count  INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS failed_fetches_slug_idx ON failed_fetches (slug);
`

// EnsureSchema creates the tables this service owns if they are missing.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
