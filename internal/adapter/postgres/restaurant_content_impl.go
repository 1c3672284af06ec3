package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/internal/repository"
)

// RestaurantContentRepoImpl stores scrape results in PostgreSQL.
type RestaurantContentRepoImpl struct {
	db *pgxpool.Pool
}

func NewRestaurantContentRepo(db *pgxpool.Pool) *RestaurantContentRepoImpl {
	return &RestaurantContentRepoImpl{db: db}
}

// Save stores or replaces the content for a slug.
func (r *RestaurantContentRepoImpl) Save(ctx context.Context, c *entity.RestaurantContent) error {
	factsJSON, err := json.Marshal(c.Facts)
	if err != nil {
		return err
	}
	knowledgeJSON, err := json.Marshal(c.Knowledge)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO restaurant_content (slug, name, website_url, full_content, daily_special, facts, knowledge, content_hash, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			website_url = EXCLUDED.website_url,
			full_content = EXCLUDED.full_content,
			daily_special = EXCLUDED.daily_special,
			facts = EXCLUDED.facts,
			knowledge = EXCLUDED.knowledge,
			content_hash = EXCLUDED.content_hash,
			scraped_at = EXCLUDED.scraped_at;
	`
	_, err = r.db.Exec(ctx, query,
		c.Slug,
		c.Name,
		c.WebsiteURL,
		c.FullContent,
		c.DailySpecial,
		factsJSON,
		knowledgeJSON,
		string(c.ContentHash),
		c.ScrapedAt,
	)
	return err
}

const selectContent = `
	SELECT slug, name, website_url, full_content, daily_special, facts, knowledge, content_hash, scraped_at
	FROM restaurant_content
`

func (r *RestaurantContentRepoImpl) FindBySlug(ctx context.Context, slug string) (*entity.RestaurantContent, error) {
	return r.scanOne(r.db.QueryRow(ctx, selectContent+`WHERE slug = $1;`, slug))
}

// FindByWebsite returns the most recent scrape of a website.
func (r *RestaurantContentRepoImpl) FindByWebsite(ctx context.Context, websiteURL string) (*entity.RestaurantContent, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		selectContent+`WHERE website_url = $1 ORDER BY scraped_at DESC LIMIT 1;`, websiteURL))
}

func (r *RestaurantContentRepoImpl) scanOne(row pgx.Row) (*entity.RestaurantContent, error) {
	var (
		c             entity.RestaurantContent
		factsJSON     []byte
		knowledgeJSON []byte
		hash          string
	)
	err := row.Scan(
		&c.Slug,
		&c.Name,
		&c.WebsiteURL,
		&c.FullContent,
		&c.DailySpecial,
		&factsJSON,
		&knowledgeJSON,
		&hash,
		&c.ScrapedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	c.ContentHash = entity.Fingerprint(hash)

	if err := json.Unmarshal(factsJSON, &c.Facts); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(knowledgeJSON, &c.Knowledge); err != nil {
		return nil, err
	}
	return &c, nil
}
