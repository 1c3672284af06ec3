package usecase

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/internal/repository"
	"github.com/user/restaurant-kb-sync/pkg/metrics"
)

// PageCrawler fetches a batch of pages one after another with a fixed
// politeness delay between requests.
type PageCrawler struct {
	fetcher repository.PageFetcher
	delay   time.Duration
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewPageCrawler(fetcher repository.PageFetcher, delay time.Duration, logger *zap.Logger) *PageCrawler {
	return &PageCrawler{
		fetcher: fetcher,
		delay:   delay,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// CrawlBatch returns one page per URL in input order. A failed page does not
// stop the batch; a cancelled context does, and the pages fetched so far are
// returned.
func (c *PageCrawler) CrawlBatch(ctx context.Context, urls []string) []*entity.CrawledPage {
	pages := make([]*entity.CrawledPage, 0, len(urls))

	for i, u := range urls {
		if i > 0 && c.delay > 0 {
			if err := c.sleep(ctx, c.delay); err != nil {
				c.logger.Warn("Crawl batch interrupted", zap.Int("fetched", len(pages)), zap.Error(err))
				break
			}
		}

		start := time.Now()
		page := c.fetcher.Fetch(ctx, u)
		metrics.FetchDuration.WithLabelValues(domainOf(u)).Observe(time.Since(start).Seconds())
		metrics.FetchesTotal.WithLabelValues(string(page.Outcome)).Inc()

		if page.Failed() {
			c.logger.Warn("Page fetch failed",
				zap.String("url", u),
				zap.String("outcome", string(page.Outcome)),
				zap.Int("attempts", page.Attempts),
			)
		} else {
			c.logger.Debug("Page fetched", zap.String("url", u), zap.Int("status", page.HTTPStatus))
		}
		pages = append(pages, page)
	}
	return pages
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
