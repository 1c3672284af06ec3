package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/internal/repository"
)

// FailedFetchRepoImpl provides a concrete implementation for the FailedFetchRepository interface using PostgreSQL.
type FailedFetchRepoImpl struct {
	db *pgxpool.Pool
}

func NewFailedFetchRepo(db *pgxpool.Pool) *FailedFetchRepoImpl {
	return &FailedFetchRepoImpl{db: db}
}

// SaveOrUpdate creates or updates a record for a failed fetch.
// It increments the retry_count on conflict.
func (r *FailedFetchRepoImpl) SaveOrUpdate(ctx context.Context, f *entity.FailedFetch) error {
	query := `
		INSERT INTO failed_fetches (url, slug, outcome, http_status, reason, last_attempt, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		ON CONFLICT (url) DO UPDATE SET
			slug = EXCLUDED.slug,
			outcome = EXCLUDED.outcome,
			http_status = EXCLUDED.http_status,
			reason = EXCLUDED.reason,
			last_attempt = EXCLUDED.last_attempt,
			retry_count = failed_fetches.retry_count + 1;
	`
	_, err := r.db.Exec(ctx, query,
		f.URL,
		f.Slug,
		string(f.Outcome),
		f.HTTPStatus,
		f.Reason,
		f.LastAttempt,
	)
	return err
}

func (r *FailedFetchRepoImpl) FindByURL(ctx context.Context, url string) (*entity.FailedFetch, error) {
	query := `
		SELECT url, slug, outcome, http_status, reason, last_attempt, retry_count
		FROM failed_fetches
		WHERE url = $1;
	`
	f, err := scanFailedFetch(r.db.QueryRow(ctx, query, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return f, err
}

func (r *FailedFetchRepoImpl) FindBySlug(ctx context.Context, slug string) ([]*entity.FailedFetch, error) {
	query := `
		SELECT url, slug, outcome, http_status, reason, last_attempt, retry_count
		FROM failed_fetches
		WHERE slug = $1
		ORDER BY last_attempt DESC;
	`
	rows, err := r.db.Query(ctx, query, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failed []*entity.FailedFetch
	for rows.Next() {
		f, err := scanFailedFetch(rows)
		if err != nil {
			return nil, err
		}
		failed = append(failed, f)
	}

	return failed, rows.Err()
}

func scanFailedFetch(row pgx.Row) (*entity.FailedFetch, error) {
	var (
		f       entity.FailedFetch
		outcome string
	)
	if err := row.Scan(
		&f.URL,
		&f.Slug,
		&outcome,
		&f.HTTPStatus,
		&f.Reason,
		&f.LastAttempt,
		&f.RetryCount,
	); err != nil {
		return nil, err
	}
	f.Outcome = entity.FetchOutcome(outcome)
	return &f, nil
}

// Delete removes a failed fetch record, typically after a successful fetch.
func (r *FailedFetchRepoImpl) Delete(ctx context.Context, url string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM failed_fetches WHERE url = $1;`, url)
	return err
}
