package response

import (
	"time"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

type ScrapeURLResponse struct {
	Slug    string `json:"slug"`
	Message string `json:"message"`
	JobID   string `json:"jobId,omitempty"`
}

// ScrapeStatusResponse is a DTO for scrape status, mirroring entity.ScrapeStatus
type ScrapeStatusResponse struct {
	URL                 string     `json:"url"`
	CurrentStatus       string     `json:"current_status"` // "pending", "completed", "failed"
	LastScrapeTimestamp *time.Time `json:"last_scrape_timestamp,omitempty"`
	FailureReason       string     `json:"failure_reason,omitempty"`
}

type SyncResultResponse struct {
	Slug       string `json:"slug"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	DocumentID string `json:"documentId,omitempty"`
}

type BatchReportResponse struct {
	Success  []SyncResultResponse `json:"success"`
	Failed   []SyncResultResponse `json:"failed"`
	Skipped  []SyncResultResponse `json:"skipped"`
	Duration string               `json:"duration"`
}

func NewSyncResult(r entity.SyncResult) SyncResultResponse {
	return SyncResultResponse{
		Slug:       r.Slug,
		Status:     string(r.Status),
		Reason:     r.Reason,
		DocumentID: r.DocumentID,
	}
}

func NewBatchReport(b *entity.BatchReport) BatchReportResponse {
	return BatchReportResponse{
		Success:  syncResults(b.Success),
		Failed:   syncResults(b.Failed),
		Skipped:  syncResults(b.Skipped),
		Duration: b.Duration.Round(time.Millisecond).String(),
	}
}

func syncResults(in []entity.SyncResult) []SyncResultResponse {
	out := make([]SyncResultResponse, 0, len(in))
	for _, r := range in {
		out = append(out, NewSyncResult(r))
	}
	return out
}
