package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/internal/repository"
	"github.com/user/restaurant-kb-sync/pkg/metrics"
	"github.com/user/restaurant-kb-sync/pkg/utils"
)

const defaultDeduplicationExpiry = 48 * time.Hour

// ScrapeRequest is a site submitted for scraping.
type ScrapeRequest struct {
	URL                 string
	Name                string
	SyncToKnowledgeBase bool
	Force               bool
}

// ScrapeManager defines the interface for submitting sites and reading
// scrape results.
type ScrapeManager interface {
	Submit(ctx context.Context, req ScrapeRequest) (*entity.ScrapeJob, error)
	GetStatus(ctx context.Context, url string) (*entity.ScrapeStatus, error)
	GetKnowledge(ctx context.Context, slug string) ([]entity.KnowledgeEntry, error)
}

// ScrapeWorker drains the scrape queue.
type ScrapeWorker interface {
	// ProcessNext handles at most one job and reports whether one was found.
	ProcessNext(ctx context.Context) (bool, error)
	RunWorker(ctx context.Context, pollInterval time.Duration)
}

type ScrapeService struct {
	queue       repository.QueueRepository
	visited     repository.VisitedRepository
	contents    repository.RestaurantContentRepository
	failed      repository.FailedFetchRepository
	crawler     *PageCrawler
	sync        Synchronizer
	subpaths    []string
	dedupExpiry time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewScrapeService creates the scrape use case. sync may be nil, in which
// case jobs asking for a knowledge-base sync only store their content.
func NewScrapeService(
	queue repository.QueueRepository,
	visited repository.VisitedRepository,
	contents repository.RestaurantContentRepository,
	failed repository.FailedFetchRepository,
	crawler *PageCrawler,
	sync Synchronizer,
	subpaths []string,
	dedupExpiry time.Duration,
	logger *zap.Logger,
) *ScrapeService {
	if dedupExpiry <= 0 {
		dedupExpiry = defaultDeduplicationExpiry
	}
	return &ScrapeService{
		queue:       queue,
		visited:     visited,
		contents:    contents,
		failed:      failed,
		crawler:     crawler,
		sync:        sync,
		subpaths:    subpaths,
		dedupExpiry: dedupExpiry,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *ScrapeService) Submit(ctx context.Context, req ScrapeRequest) (*entity.ScrapeJob, error) {
	siteURL := strings.TrimSpace(req.URL)
	if err := validateSiteURL(siteURL); err != nil {
		return nil, err
	}
	slug := utils.Slugify(req.Name)
	if slug == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidScrapeRequest)
	}

	job := &entity.ScrapeJob{
		ID:                  uuid.NewString(),
		URL:                 siteURL,
		Name:                strings.TrimSpace(req.Name),
		Slug:                slug,
		SyncToKnowledgeBase: req.SyncToKnowledgeBase,
		SubmittedAt:         s.now(),
	}

	if req.Force {
		if err := s.visited.RemoveVisited(ctx, siteURL); err != nil {
			s.logger.Warn("Failed to remove visited key for forced scrape", zap.String("url", siteURL), zap.Error(err))
		}
	} else {
		isVisited, err := s.visited.IsVisited(ctx, siteURL)
		if err != nil {
			return nil, fmt.Errorf("failed to check visited state: %w", err)
		}
		if isVisited {
			return job, ErrRecentlyScraped
		}
	}

	if err := s.queue.Push(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue scrape job: %w", err)
	}

	if err := s.visited.MarkVisited(ctx, siteURL, s.dedupExpiry); err != nil {
		// The job is queued; a duplicate submission may slip through.
		s.logger.Error("Failed to mark site as visited after queueing", zap.String("url", siteURL), zap.Error(err))
	}

	s.updateQueueGauge(ctx)
	s.logger.Info("Scrape job queued", zap.String("job_id", job.ID), zap.String("slug", slug), zap.String("url", siteURL))
	return job, nil
}

func (s *ScrapeService) ProcessNext(ctx context.Context) (bool, error) {
	job, err := s.queue.Pop(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrQueueEmpty) {
			return false, nil
		}
		return false, fmt.Errorf("failed to pop job from queue: %w", err)
	}
	s.updateQueueGauge(ctx)

	log := s.logger.With(zap.String("job_id", job.ID), zap.String("slug", job.Slug))
	log.Info("Processing scrape job", zap.String("url", job.URL))

	if err := s.process(ctx, job, log); err != nil {
		metrics.ScrapeJobsTotal.WithLabelValues("failure").Inc()
		return true, err
	}
	metrics.ScrapeJobsTotal.WithLabelValues("success").Inc()
	return true, nil
}

func (s *ScrapeService) process(ctx context.Context, job *entity.ScrapeJob, log *zap.Logger) error {
	urls, err := utils.SitePages(job.URL, s.subpaths)
	if err != nil {
		return fmt.Errorf("invalid site url %q: %w", job.URL, err)
	}

	pages := s.crawler.CrawlBatch(ctx, urls)
	for _, p := range pages {
		s.recordFetch(ctx, job, p, log)
	}

	facts := ExtractPages(pages)
	if len(facts) == 0 {
		return fmt.Errorf("%w: %s", ErrSiteUnreachable, job.URL)
	}

	content := BuildContent(job.Slug, job.Name, job.URL, facts, s.now())
	if err := s.contents.Save(ctx, content); err != nil {
		return fmt.Errorf("failed to save content for %s: %w", job.Slug, err)
	}
	log.Info("Scraped content saved",
		zap.Int("pages", len(facts)),
		zap.Int("entries", len(content.Knowledge)),
		zap.Bool("has_daily", content.DailySpecial != ""),
	)

	if job.SyncToKnowledgeBase && s.sync != nil {
		// The sync outcome is logged by the synchronizer and does not fail
		// the scrape.
		s.sync.SyncCustomer(ctx, job.Slug, TriggerScrape)
	}
	return nil
}

func (s *ScrapeService) recordFetch(ctx context.Context, job *entity.ScrapeJob, p *entity.CrawledPage, log *zap.Logger) {
	if !p.Failed() {
		if err := s.failed.Delete(ctx, p.URL); err != nil {
			log.Warn("Failed to clear failed fetch record", zap.String("url", p.URL), zap.Error(err))
		}
		return
	}

	reason := string(p.Outcome)
	if p.ErrorReason != nil {
		reason = *p.ErrorReason
	}
	record := &entity.FailedFetch{
		URL:         p.URL,
		Slug:        job.Slug,
		Outcome:     p.Outcome,
		HTTPStatus:  p.HTTPStatus,
		Reason:      reason,
		LastAttempt: p.FetchedAt,
	}
	if err := s.failed.SaveOrUpdate(ctx, record); err != nil {
		log.Error("Failed to record failed fetch", zap.String("url", p.URL), zap.Error(err))
	}
}

func (s *ScrapeService) GetStatus(ctx context.Context, siteURL string) (*entity.ScrapeStatus, error) {
	siteURL = strings.TrimSpace(siteURL)

	content, err := s.contents.FindByWebsite(ctx, siteURL)
	switch {
	case err == nil:
		return &entity.ScrapeStatus{
			URL:                 siteURL,
			CurrentStatus:       "completed",
			LastScrapeTimestamp: &content.ScrapedAt,
		}, nil
	case !errors.Is(err, repository.ErrNotFound):
		s.logger.Error("Error finding scraped content by URL", zap.String("url", siteURL), zap.Error(err))
	}

	if root, err := utils.SitePages(siteURL, nil); err == nil {
		f, err := s.failed.FindByURL(ctx, root[0])
		switch {
		case err == nil:
			return &entity.ScrapeStatus{
				URL:                 siteURL,
				CurrentStatus:       "failed",
				LastScrapeTimestamp: &f.LastAttempt,
				FailureReason:       f.Reason,
			}, nil
		case !errors.Is(err, repository.ErrNotFound):
			s.logger.Error("Error finding failed fetch by URL", zap.String("url", siteURL), zap.Error(err))
		}
	}

	isVisited, err := s.visited.IsVisited(ctx, siteURL)
	if err != nil {
		return nil, err
	}
	if isVisited {
		return &entity.ScrapeStatus{URL: siteURL, CurrentStatus: "pending"}, nil
	}

	return &entity.ScrapeStatus{URL: siteURL, CurrentStatus: "not_found"}, nil
}

func (s *ScrapeService) GetKnowledge(ctx context.Context, slug string) ([]entity.KnowledgeEntry, error) {
	content, err := s.contents.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRestaurantNotFound, slug)
		}
		return nil, err
	}
	return content.Knowledge, nil
}

// RunWorker processes jobs until the queue is empty, then waits one poll
// interval before checking again. It returns when ctx is done.
func (s *ScrapeService) RunWorker(ctx context.Context, pollInterval time.Duration) {
	s.logger.Info("Scrape worker started", zap.Duration("poll_interval", pollInterval))
	for {
		processed, err := s.ProcessNext(ctx)
		if err != nil {
			s.logger.Error("Scrape job failed", zap.Error(err))
		}
		if processed {
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if err := sleepContext(ctx, pollInterval); err != nil {
			break
		}
	}
	s.logger.Info("Scrape worker stopped")
}

func (s *ScrapeService) updateQueueGauge(ctx context.Context) {
	size, err := s.queue.Size(ctx)
	if err != nil {
		s.logger.Warn("Failed to read queue size", zap.Error(err))
		return
	}
	metrics.ScrapeJobsInQueue.Set(float64(size))
}

func validateSiteURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidScrapeRequest)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) url", ErrInvalidScrapeRequest)
	}
	return nil
}
