package chromedp_crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

// ChromedpCrawler renders pages in headless Chrome for sites that build
// their menus with JavaScript. Each fetch is a single attempt.
type ChromedpCrawler struct {
	allocators chan context.Context
	cancels    []context.CancelFunc
	timeout    time.Duration
	logger     *zap.Logger
	closeOnce  sync.Once
}

// NewChromedpCrawler starts maxConcurrency browser allocators. At most that
// many fetches run at once; further calls wait for a free browser.
func NewChromedpCrawler(logger *zap.Logger, userAgent string, maxConcurrency int, pageLoadTimeout time.Duration) *ChromedpCrawler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if userAgent == "" {
		userAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36`
	}

	c := &ChromedpCrawler{
		allocators: make(chan context.Context, maxConcurrency),
		timeout:    pageLoadTimeout,
		logger:     logger,
	}
	for i := 0; i < maxConcurrency; i++ {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(userAgent),
		)
		allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
		c.cancels = append(c.cancels, cancel)
		c.allocators <- allocCtx
	}
	return c
}

// Fetch implements repository.PageFetcher.
func (c *ChromedpCrawler) Fetch(ctx context.Context, url string) *entity.CrawledPage {
	var allocCtx context.Context
	select {
	case allocCtx = <-c.allocators:
	case <-ctx.Done():
		return pageFromRun(url, "", 0, "", ctx.Err())
	}
	defer func() { c.allocators <- allocCtx }()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	taskCtx, cancel = context.WithTimeout(taskCtx, c.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		mu       sync.Mutex
		status   int64
		finalURL string
		html     string
	)
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			mu.Lock()
			status = e.Response.Status
			finalURL = e.Response.URL
			mu.Unlock()
		}
	})

	err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		c.logger.Warn("Rendering failed", zap.String("url", url), zap.Error(err))
	}

	mu.Lock()
	defer mu.Unlock()
	return pageFromRun(url, finalURL, int(status), html, err)
}

// Close shuts down every browser started by the crawler.
func (c *ChromedpCrawler) Close() {
	c.closeOnce.Do(func() {
		for _, cancel := range c.cancels {
			cancel()
		}
	})
}

func pageFromRun(url, finalURL string, status int, html string, err error) *entity.CrawledPage {
	if finalURL == "" {
		finalURL = url
	}
	page := &entity.CrawledPage{
		URL:        url,
		FinalURL:   finalURL,
		HTTPStatus: status,
		FetchedAt:  time.Now(),
		Attempts:   1,
		Outcome:    entity.OutcomeSuccess,
	}

	fail := func(outcome entity.FetchOutcome, reason string) *entity.CrawledPage {
		page.Outcome = outcome
		page.ErrorReason = &reason
		return page
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fail(entity.OutcomeTimedOut, err.Error())
	case err != nil:
		return fail(entity.OutcomeNetworkError, err.Error())
	case status == 429:
		return fail(entity.OutcomeRateLimitExhausted, fmt.Sprintf("rate limited at %s", finalURL))
	case status == 200:
		page.RawHTML = &html
	}
	return page
}
