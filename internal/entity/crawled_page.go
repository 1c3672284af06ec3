package entity

import "time"

// FetchOutcome classifies how a page fetch ended.
type FetchOutcome string

const (
	OutcomeSuccess            FetchOutcome = "success"
	OutcomeNetworkError       FetchOutcome = "network_error"
	OutcomeTimedOut           FetchOutcome = "timed_out"
	OutcomeRateLimitExhausted FetchOutcome = "rate_limit_exhausted"
	OutcomeTooManyRedirects   FetchOutcome = "too_many_redirects"
	OutcomeBlockedByRobots    FetchOutcome = "blocked_by_robots"
)

// CrawledPage is the result of fetching one URL. RawHTML is only set when
// the final response was a 200.
type CrawledPage struct {
	URL         string       `json:"url"`
	FinalURL    string       `json:"finalUrl"`
	HTTPStatus  int          `json:"httpStatus"`
	RawHTML     *string      `json:"-"`
	FetchedAt   time.Time    `json:"fetchedAt"`
	ErrorReason *string      `json:"errorReason,omitempty"`
	Outcome     FetchOutcome `json:"outcome"`
	Attempts    int          `json:"attempts"`
}

// Failed reports whether the fetch produced no HTTP response worth keeping.
func (p *CrawledPage) Failed() bool {
	return p.Outcome != OutcomeSuccess
}

// HasHTML reports whether the page carries a body to extract from.
func (p *CrawledPage) HasHTML() bool {
	return p.RawHTML != nil
}
