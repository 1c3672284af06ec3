package httpfetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// robotsCache holds the parsed robots.txt group per host. A nil group
// means everything is allowed.
type robotsCache struct {
	mu     sync.Mutex
	groups map[string]*robotstxt.Group
}

func newRobotsCache() *robotsCache {
	return &robotsCache{groups: make(map[string]*robotstxt.Group)}
}

func (c *robotsCache) allowed(ctx context.Context, f *Fetcher, target *url.URL, userAgent string) bool {
	c.mu.Lock()
	group, ok := c.groups[target.Host]
	c.mu.Unlock()

	if !ok {
		group = c.load(ctx, f, target, userAgent)
		c.mu.Lock()
		c.groups[target.Host] = group
		c.mu.Unlock()
	}
	if group == nil {
		return true
	}

	path := target.Path
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

// load fetches robots.txt once. Unreachable or broken files allow everything.
func (c *robotsCache) load(ctx context.Context, f *Fetcher, target *url.URL, userAgent string) *robotstxt.Group {
	robotsURL := &url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/robots.txt"}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("robots.txt unavailable, allowing all", zap.String("host", target.Host), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || (resp.StatusCode >= 300 && resp.StatusCode < 400) {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		f.logger.Warn("Failed to parse robots.txt", zap.String("host", target.Host), zap.Error(err))
		return nil
	}
	return data.FindGroup(userAgent)
}
