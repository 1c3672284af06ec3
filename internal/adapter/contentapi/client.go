// Package contentapi resolves daily content through another instance's
// GET /api/restaurant/{slug}/dagens endpoint.
package contentapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/internal/repository"
)

// Client implements repository.ContentResolver.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// ResolveDaily fails on any non-200 answer. A 404 wraps
// repository.ErrNotFound.
func (c *Client) ResolveDaily(ctx context.Context, slug, websiteURL string) (*entity.DailyContent, error) {
	endpoint := fmt.Sprintf("%s/api/restaurant/%s/dagens", c.baseURL, url.PathEscape(slug))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: no daily content for %s", repository.ErrNotFound, slug)
	default:
		return nil, fmt.Errorf("content endpoint returned status %d", resp.StatusCode)
	}

	var content entity.DailyContent
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("failed to decode content response: %w", err)
	}
	return &content, nil
}
