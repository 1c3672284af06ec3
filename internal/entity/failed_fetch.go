package entity

import "time"

// FailedFetch mirrors the `failed_fetches` PostgreSQL table schema.
type FailedFetch struct {
	URL         string
	Slug        string
	Outcome     FetchOutcome
	HTTPStatus  int
	Reason      string
	LastAttempt time.Time
	RetryCount  int
}
