package entity

import "time"

// UpdateSchedule is how often a customer's knowledge base is refreshed.
type UpdateSchedule string

const (
	ScheduleDaily  UpdateSchedule = "daily"
	ScheduleWeekly UpdateSchedule = "weekly"
	ScheduleNone   UpdateSchedule = "none"
)

// Fingerprint is the lowercase hex SHA-256 of trimmed content.
type Fingerprint string

// SyncState is the persisted result of the last successful sync. Version
// increases on every write and guards concurrent updates.
type SyncState struct {
	LastFingerprint *Fingerprint
	LastSyncAt      *time.Time
	Version         int64
}

// Customer is a restaurant with a voice agent. The record is owned by the
// dashboard; this service only writes its SyncState.
type Customer struct {
	Slug            string
	Name            string
	WebsiteURL      string
	KnowledgeBaseID string
	UpdateSchedule  UpdateSchedule
	UpdateHour      int
	SyncState       SyncState
}
