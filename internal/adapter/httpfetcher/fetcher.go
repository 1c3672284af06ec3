// Package httpfetcher fetches restaurant pages over plain HTTP.
package httpfetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/pkg/utils"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxRetries   = 2
	defaultBackoffUnit  = 5 * time.Second
	defaultMaxRedirects = 10
	defaultMaxBodyBytes = 5 << 20
)

// Fetcher implements repository.PageFetcher.
type Fetcher struct {
	client       *http.Client
	logger       *zap.Logger
	timeout      time.Duration
	maxRetries   int
	backoffUnit  time.Duration
	maxRedirects int
	maxBodyBytes int64
	agents       *agentPool
	robots       *robotsCache
	sleep        func(ctx context.Context, d time.Duration) error
}

type Option func(*Fetcher)

// WithTimeout bounds each individual request, not the whole fetch.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithMaxRetries sets how many times a 429 response is retried.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) { f.maxRetries = n }
}

// WithBackoffUnit sets the base wait; retry n waits n*unit.
func WithBackoffUnit(d time.Duration) Option {
	return func(f *Fetcher) { f.backoffUnit = d }
}

func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) { f.maxRedirects = n }
}

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.agents.userAgents = []string{ua}
		}
	}
}

// WithProxies routes requests through the given proxies in turn.
func WithProxies(proxies []string) Option {
	return func(f *Fetcher) { f.agents.proxies = proxies }
}

// WithRobots enables robots.txt checks before each fetch.
func WithRobots(enabled bool) Option {
	return func(f *Fetcher) {
		if enabled {
			f.robots = newRobotsCache()
		} else {
			f.robots = nil
		}
	}
}

func New(logger *zap.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		logger:       logger,
		timeout:      defaultTimeout,
		maxRetries:   defaultMaxRetries,
		backoffUnit:  defaultBackoffUnit,
		maxRedirects: defaultMaxRedirects,
		maxBodyBytes: defaultMaxBodyBytes,
		agents:       newAgentPool(),
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = f.agents.proxy
	f.client = &http.Client{
		Transport: transport,
		// Redirects are followed by fetch itself so they never count as
		// retries and the hop limit stays under our control.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return f
}

// Fetch retrieves a page. It never returns nil; failures are reported
// through the page's Outcome.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *entity.CrawledPage {
	return f.fetch(ctx, rawURL, rawURL, 0, 0)
}

func (f *Fetcher) fetch(ctx context.Context, original, current string, attempt, hops int) *entity.CrawledPage {
	page := &entity.CrawledPage{
		URL:       original,
		FinalURL:  current,
		FetchedAt: time.Now(),
		Attempts:  attempt + 1,
		Outcome:   entity.OutcomeSuccess,
	}

	target, err := url.Parse(current)
	if err != nil || target.Host == "" {
		return withFailure(page, entity.OutcomeNetworkError, fmt.Sprintf("invalid url %q", current))
	}

	userAgent := f.agents.userAgent()
	if f.robots != nil && !f.robots.allowed(ctx, f, target, userAgent) {
		return withFailure(page, entity.OutcomeBlockedByRobots, "disallowed by robots.txt")
	}

	res, err := f.do(ctx, target, userAgent)
	if err != nil {
		if isTimeout(err) {
			f.logger.Warn("Fetch timed out", zap.String("url", current), zap.Duration("timeout", f.timeout))
			return withFailure(page, entity.OutcomeTimedOut, err.Error())
		}
		f.logger.Warn("Fetch failed", zap.String("url", current), zap.Error(err))
		return withFailure(page, entity.OutcomeNetworkError, err.Error())
	}
	page.HTTPStatus = res.status

	switch {
	case isRedirect(res.status) && res.location != "":
		if hops >= f.maxRedirects {
			return withFailure(page, entity.OutcomeTooManyRedirects, fmt.Sprintf("stopped after %d redirects", hops))
		}
		next, err := utils.ToAbsoluteURL(target, res.location)
		if err != nil {
			return withFailure(page, entity.OutcomeNetworkError, fmt.Sprintf("invalid redirect location %q", res.location))
		}
		f.logger.Debug("Following redirect", zap.String("from", current), zap.String("to", next), zap.Int("status", res.status))
		return f.fetch(ctx, original, next, attempt, hops+1)

	case res.status == http.StatusTooManyRequests:
		if attempt >= f.maxRetries {
			return withFailure(page, entity.OutcomeRateLimitExhausted,
				fmt.Sprintf("still rate limited after %d attempts", attempt+1))
		}
		wait := time.Duration(attempt+1) * f.backoffUnit
		f.logger.Warn("Rate limited, backing off",
			zap.String("url", current), zap.Int("attempt", attempt+1), zap.Duration("wait", wait))
		if err := f.sleep(ctx, wait); err != nil {
			return withFailure(page, entity.OutcomeNetworkError, err.Error())
		}
		return f.fetch(ctx, original, current, attempt+1, hops)
	}

	page.RawHTML = res.body
	return page
}

type response struct {
	status   int
	location string
	body     *string
}

// do performs one request under its own timeout. The body is read only for
// 200 responses.
func (f *Fetcher) do(ctx context.Context, target *url.URL, userAgent string) (*response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "sv-SE,sv;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	res := &response{status: resp.StatusCode, location: resp.Header.Get("Location")}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return res, nil
	}

	var reader io.Reader = io.LimitReader(resp.Body, f.maxBodyBytes)
	if decoded, err := charset.NewReader(reader, resp.Header.Get("Content-Type")); err == nil {
		reader = decoded
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	html := string(body)
	res.body = &html
	return res, nil
}

func withFailure(page *entity.CrawledPage, outcome entity.FetchOutcome, reason string) *entity.CrawledPage {
	page.Outcome = outcome
	page.ErrorReason = &reason
	page.RawHTML = nil
	return page
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
