package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/internal/hashgate"
	"github.com/user/restaurant-kb-sync/internal/repository"
	"github.com/user/restaurant-kb-sync/pkg/metrics"
)

const (
	ReasonNoContent      = "no content found"
	ReasonUnchanged      = "unchanged"
	ReasonSyncInProgress = "sync already in progress"

	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerScrape    = "scrape"

	defaultLockTTL = 2 * time.Minute
)

// SyncRequest carries everything needed to sync one restaurant.
type SyncRequest struct {
	Slug                string
	Name                string
	WebsiteURL          string
	KnowledgeBaseID     string
	PreviousFingerprint *entity.Fingerprint
}

func (r SyncRequest) missing() []string {
	var m []string
	if strings.TrimSpace(r.Slug) == "" {
		m = append(m, "slug")
	}
	if strings.TrimSpace(r.WebsiteURL) == "" {
		m = append(m, "website url")
	}
	if strings.TrimSpace(r.KnowledgeBaseID) == "" {
		m = append(m, "knowledge base id")
	}
	return m
}

// Synchronizer pushes changed daily content into customers' knowledge bases.
type Synchronizer interface {
	// SyncDailyContent never returns an error; failures are reported
	// through the result's Status and Err.
	SyncDailyContent(ctx context.Context, req SyncRequest) entity.SyncResult
	// SyncCustomer syncs a stored customer and persists its new fingerprint.
	SyncCustomer(ctx context.Context, slug, trigger string) entity.SyncResult
	// RunScheduled syncs every customer due at hour. A negative hour means
	// the current hour in the schedule's time zone.
	RunScheduled(ctx context.Context, hour int, now time.Time) (*entity.BatchReport, error)
}

type SyncOption func(*synchronizer)

func WithLocation(loc *time.Location) SyncOption {
	return func(s *synchronizer) { s.loc = loc }
}

func WithLockTTL(d time.Duration) SyncOption {
	return func(s *synchronizer) { s.lockTTL = d }
}

func WithClock(now func() time.Time) SyncOption {
	return func(s *synchronizer) { s.now = now }
}

type synchronizer struct {
	resolver  repository.ContentResolver
	pusher    repository.KnowledgeBasePusher
	customers repository.CustomerRepository
	locks     repository.LockRepository
	logger    *zap.Logger
	loc       *time.Location
	lockTTL   time.Duration
	now       func() time.Time
}

// NewSynchronizer creates a new knowledge synchronizer use case.
func NewSynchronizer(
	resolver repository.ContentResolver,
	pusher repository.KnowledgeBasePusher,
	customers repository.CustomerRepository,
	locks repository.LockRepository,
	logger *zap.Logger,
	opts ...SyncOption,
) Synchronizer {
	s := &synchronizer{
		resolver:  resolver,
		pusher:    pusher,
		customers: customers,
		locks:     locks,
		logger:    logger,
		loc:       time.UTC,
		lockTTL:   defaultLockTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *synchronizer) SyncDailyContent(ctx context.Context, req SyncRequest) entity.SyncResult {
	res := entity.SyncResult{Slug: req.Slug}

	if missing := req.missing(); len(missing) > 0 {
		return failed(res, fmt.Errorf("%w: %s", ErrMissingConfiguration, strings.Join(missing, ", ")))
	}

	content, err := s.resolver.ResolveDaily(ctx, req.Slug, req.WebsiteURL)
	if err != nil {
		return failed(res, fmt.Errorf("failed to resolve daily content: %w", err))
	}

	text := strings.TrimSpace(content.Content)
	if text == "" {
		return skipped(res, ReasonNoContent)
	}
	if !hashgate.HasChanged(text, req.PreviousFingerprint) {
		return skipped(res, ReasonUnchanged)
	}

	name := req.Name
	if name == "" {
		name = req.Slug
	}
	today := s.now().In(s.loc)
	doc := &entity.KnowledgeDocument{
		Name:            fmt.Sprintf("%s – Dagens %s", name, today.Format("2006-01-02")),
		Text:            text,
		KnowledgeBaseID: req.KnowledgeBaseID,
		CreatedAt:       today,
	}

	id, err := s.pusher.Push(ctx, doc)
	if err != nil {
		return failed(res, fmt.Errorf("failed to push document: %w", err))
	}

	res.Status = entity.SyncSuccess
	res.DocumentID = id
	res.Fingerprint = hashgate.ComputeFingerprint(text)
	return res
}

func (s *synchronizer) SyncCustomer(ctx context.Context, slug, trigger string) entity.SyncResult {
	res := s.syncCustomer(ctx, slug)
	s.record(res, trigger)
	return res
}

// syncCustomer holds the slug's lock from the customer read until the
// fingerprint write.
func (s *synchronizer) syncCustomer(ctx context.Context, slug string) entity.SyncResult {
	res := entity.SyncResult{Slug: slug}

	release, err := s.locks.Acquire(ctx, "sync:"+slug, s.lockTTL)
	if err != nil {
		if errors.Is(err, repository.ErrLockHeld) {
			return skipped(res, ReasonSyncInProgress)
		}
		return failed(res, fmt.Errorf("failed to acquire sync lock: %w", err))
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release sync lock", zap.String("slug", slug), zap.Error(err))
		}
	}()

	customer, err := s.customers.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return failed(res, fmt.Errorf("%w: %s", ErrRestaurantNotFound, slug))
		}
		return failed(res, fmt.Errorf("failed to load customer: %w", err))
	}

	res = s.SyncDailyContent(ctx, SyncRequest{
		Slug:                customer.Slug,
		Name:                customer.Name,
		WebsiteURL:          customer.WebsiteURL,
		KnowledgeBaseID:     customer.KnowledgeBaseID,
		PreviousFingerprint: customer.SyncState.LastFingerprint,
	})
	if res.Status != entity.SyncSuccess {
		return res
	}

	err = s.customers.UpdateSyncState(ctx, customer.Slug, customer.SyncState.Version, res.Fingerprint, s.now())
	if err != nil {
		res.Status = entity.SyncFailed
		res.Err = fmt.Errorf("document %s pushed but sync state not saved: %w", res.DocumentID, err)
		res.Reason = res.Err.Error()
	}
	return res
}

func (s *synchronizer) RunScheduled(ctx context.Context, hour int, now time.Time) (*entity.BatchReport, error) {
	start := s.now()
	report := &entity.BatchReport{
		Success: []entity.SyncResult{},
		Failed:  []entity.SyncResult{},
		Skipped: []entity.SyncResult{},
	}

	local := now.In(s.loc)
	if hour < 0 {
		hour = local.Hour()
	}

	customers, err := s.customers.ListScheduled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled customers: %w", err)
	}

	for _, c := range customers {
		if !ShouldRun(c, hour, local) {
			continue
		}
		var res entity.SyncResult
		if err := ctx.Err(); err != nil {
			// Every due customer is reported, even once the batch is cancelled.
			res = failed(entity.SyncResult{Slug: c.Slug}, fmt.Errorf("scheduled sync cancelled: %w", err))
		} else {
			res = s.syncCustomer(ctx, c.Slug)
		}
		s.record(res, TriggerScheduled)
		report.Add(res)
	}

	report.Duration = s.now().Sub(start)
	metrics.SyncBatchDuration.Observe(report.Duration.Seconds())
	s.logger.Info("Scheduled sync finished",
		zap.Int("hour", hour),
		zap.Int("success", len(report.Success)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// ShouldRun reports whether a customer is due at hour. Weekly customers run
// on Mondays only.
func ShouldRun(c *entity.Customer, hour int, now time.Time) bool {
	if c.UpdateHour != hour {
		return false
	}
	switch c.UpdateSchedule {
	case entity.ScheduleDaily:
		return true
	case entity.ScheduleWeekly:
		return now.Weekday() == time.Monday
	default:
		return false
	}
}

func (s *synchronizer) record(res entity.SyncResult, trigger string) {
	metrics.SyncsTotal.WithLabelValues(string(res.Status), trigger).Inc()

	fields := []zap.Field{
		zap.String("slug", res.Slug),
		zap.String("status", string(res.Status)),
		zap.String("trigger", trigger),
	}
	switch res.Status {
	case entity.SyncSuccess:
		s.logger.Info("Knowledge base updated", append(fields, zap.String("document_id", res.DocumentID))...)
	case entity.SyncSkipped:
		s.logger.Info("Knowledge sync skipped", append(fields, zap.String("reason", res.Reason))...)
	default:
		s.logger.Error("Knowledge sync failed", append(fields, zap.Error(res.Err))...)
	}
}

func failed(res entity.SyncResult, err error) entity.SyncResult {
	res.Status = entity.SyncFailed
	res.Err = err
	res.Reason = err.Error()
	return res
}

func skipped(res entity.SyncResult, reason string) entity.SyncResult {
	res.Status = entity.SyncSkipped
	res.Reason = reason
	return res
}
