package usecase

import "errors"

var (
	ErrMissingConfiguration = errors.New("missing sync configuration")
	ErrRecentlyScraped      = errors.New("site has been scraped recently and force is false")
	ErrInvalidScrapeRequest = errors.New("invalid scrape request")
	ErrSiteUnreachable      = errors.New("no page of the site could be fetched")
	ErrRestaurantNotFound   = errors.New("restaurant not found")
)
