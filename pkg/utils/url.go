package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}

// SitePages returns the site root followed by each subpath resolved against
// it, without duplicates and in the given order.
func SitePages(websiteURL string, subpaths []string) ([]string, error) {
	base, err := url.Parse(strings.TrimSpace(websiteURL))
	if err != nil {
		return nil, err
	}
	if base.Path == "" {
		base.Path = "/"
	}

	pages := []string{base.String()}
	seen := map[string]bool{base.String(): true}
	for _, p := range subpaths {
		abs, err := ToAbsoluteURL(base, p)
		if err != nil {
			return nil, err
		}
		if !seen[abs] {
			seen[abs] = true
			pages = append(pages, abs)
		}
	}
	return pages, nil
}
