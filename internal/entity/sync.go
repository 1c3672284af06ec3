package entity

import "time"

type SyncStatus string

const (
	SyncSuccess SyncStatus = "success"
	SyncSkipped SyncStatus = "skipped"
	SyncFailed  SyncStatus = "failed"
)

// SyncResult is the outcome of synchronizing one restaurant. Fingerprint is
// only set on success and is what the caller must persist.
type SyncResult struct {
	Slug        string
	Status      SyncStatus
	Reason      string
	DocumentID  string
	Fingerprint Fingerprint
	Err         error
}

type BatchReport struct {
	Success  []SyncResult
	Failed   []SyncResult
	Skipped  []SyncResult
	Duration time.Duration
}

// Add files a result under its status.
func (b *BatchReport) Add(r SyncResult) {
	switch r.Status {
	case SyncSuccess:
		b.Success = append(b.Success, r)
	case SyncSkipped:
		b.Skipped = append(b.Skipped, r)
	default:
		b.Failed = append(b.Failed, r)
	}
}
