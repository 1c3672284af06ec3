package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/internal/knowledge"
	"github.com/user/restaurant-kb-sync/internal/repository"
	"github.com/user/restaurant-kb-sync/pkg/utils"
)

// DailyContentProvider serves today's content for a restaurant by slug.
type DailyContentProvider interface {
	GetDaily(ctx context.Context, slug string) (*entity.DailyContent, error)
}

// DailyContentService resolves daily content by crawling the restaurant's
// site. It implements repository.ContentResolver and DailyContentProvider.
type DailyContentService struct {
	crawler   *PageCrawler
	contents  repository.RestaurantContentRepository
	customers repository.CustomerRepository
	subpaths  []string
	logger    *zap.Logger
}

func NewDailyContentService(
	crawler *PageCrawler,
	contents repository.RestaurantContentRepository,
	customers repository.CustomerRepository,
	subpaths []string,
	logger *zap.Logger,
) *DailyContentService {
	return &DailyContentService{
		crawler:   crawler,
		contents:  contents,
		customers: customers,
		subpaths:  subpaths,
		logger:    logger,
	}
}

// ResolveDaily crawls the site root and subpaths and returns the first daily
// section found. When no page can be fetched it falls back to the last
// stored scrape of the slug.
func (s *DailyContentService) ResolveDaily(ctx context.Context, slug, websiteURL string) (*entity.DailyContent, error) {
	pages, err := utils.SitePages(websiteURL, s.subpaths)
	if err != nil {
		return nil, fmt.Errorf("invalid website url %q: %w", websiteURL, err)
	}

	facts := ExtractPages(s.crawler.CrawlBatch(ctx, pages))
	if len(facts) == 0 {
		stored, err := s.contents.FindBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrSiteUnreachable, websiteURL)
			}
			return nil, fmt.Errorf("failed to load stored content for %s: %w", slug, err)
		}
		s.logger.Warn("Site unreachable, serving stored content",
			zap.String("slug", slug),
			zap.Time("scraped_at", stored.ScrapedAt),
		)
		return &entity.DailyContent{Content: stored.DailySpecial, FullContent: stored.FullContent}, nil
	}

	profile := knowledge.Merge(slug, facts)
	return &entity.DailyContent{
		Content:     profile.DailySpecial,
		FullContent: joinTexts(facts),
	}, nil
}

// GetDaily looks up the website of a known restaurant, first among customers
// and then among scraped sites, and resolves its daily content.
func (s *DailyContentService) GetDaily(ctx context.Context, slug string) (*entity.DailyContent, error) {
	website, err := s.websiteFor(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.ResolveDaily(ctx, slug, website)
}

func (s *DailyContentService) websiteFor(ctx context.Context, slug string) (string, error) {
	customer, err := s.customers.FindBySlug(ctx, slug)
	switch {
	case err == nil && customer.WebsiteURL != "":
		return customer.WebsiteURL, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return "", fmt.Errorf("failed to load customer %s: %w", slug, err)
	}

	stored, err := s.contents.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrRestaurantNotFound, slug)
		}
		return "", fmt.Errorf("failed to load stored content for %s: %w", slug, err)
	}
	return stored.WebsiteURL, nil
}
