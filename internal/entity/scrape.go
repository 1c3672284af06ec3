package entity

import "time"

// ScrapeJob is a queued request to crawl a restaurant site.
type ScrapeJob struct {
	ID                  string    `json:"id"`
	URL                 string    `json:"url"`
	Name                string    `json:"name"`
	Slug                string    `json:"slug"`
	SyncToKnowledgeBase bool      `json:"syncToKnowledgeBase"`
	SubmittedAt         time.Time `json:"submittedAt"`
}

type ScrapeStatus struct {
	URL                 string
	CurrentStatus       string // "pending", "completed", "failed", "not_found"
	LastScrapeTimestamp *time.Time
	FailureReason       string
}
