package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

// Mocks
type MockPageFetcher struct {
	mock.Mock
}

func (m *MockPageFetcher) Fetch(ctx context.Context, url string) *entity.CrawledPage {
	args := m.Called(ctx, url)
	return args.Get(0).(*entity.CrawledPage)
}

type MockContentResolver struct {
	mock.Mock
}

func (m *MockContentResolver) ResolveDaily(ctx context.Context, slug, websiteURL string) (*entity.DailyContent, error) {
	args := m.Called(ctx, slug, websiteURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DailyContent), args.Error(1)
}

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Push(ctx context.Context, doc *entity.KnowledgeDocument) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) FindBySlug(ctx context.Context, slug string) (*entity.Customer, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Customer), args.Error(1)
}

func (m *MockCustomerRepo) ListScheduled(ctx context.Context) ([]*entity.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Customer), args.Error(1)
}

func (m *MockCustomerRepo) UpdateSyncState(ctx context.Context, slug string, expectedVersion int64, fp entity.Fingerprint, at time.Time) error {
	args := m.Called(ctx, slug, expectedVersion, fp, at)
	return args.Error(0)
}

type MockLockRepo struct {
	mock.Mock
}

func (m *MockLockRepo) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

type MockQueueRepo struct {
	mock.Mock
}

func (m *MockQueueRepo) Push(ctx context.Context, job *entity.ScrapeJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockQueueRepo) Pop(ctx context.Context) (*entity.ScrapeJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ScrapeJob), args.Error(1)
}

func (m *MockQueueRepo) Size(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockVisitedRepo struct {
	mock.Mock
}

func (m *MockVisitedRepo) MarkVisited(ctx context.Context, url string, expiry time.Duration) error {
	args := m.Called(ctx, url, expiry)
	return args.Error(0)
}

func (m *MockVisitedRepo) IsVisited(ctx context.Context, url string) (bool, error) {
	args := m.Called(ctx, url)
	return args.Bool(0), args.Error(1)
}

func (m *MockVisitedRepo) RemoveVisited(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

type MockContentRepo struct {
	mock.Mock
}

func (m *MockContentRepo) Save(ctx context.Context, content *entity.RestaurantContent) error {
	args := m.Called(ctx, content)
	return args.Error(0)
}

func (m *MockContentRepo) FindBySlug(ctx context.Context, slug string) (*entity.RestaurantContent, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RestaurantContent), args.Error(1)
}

func (m *MockContentRepo) FindByWebsite(ctx context.Context, websiteURL string) (*entity.RestaurantContent, error) {
	args := m.Called(ctx, websiteURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RestaurantContent), args.Error(1)
}

type MockFailedFetchRepo struct {
	mock.Mock
}

func (m *MockFailedFetchRepo) SaveOrUpdate(ctx context.Context, failed *entity.FailedFetch) error {
	args := m.Called(ctx, failed)
	return args.Error(0)
}

func (m *MockFailedFetchRepo) FindByURL(ctx context.Context, url string) (*entity.FailedFetch, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FailedFetch), args.Error(1)
}

func (m *MockFailedFetchRepo) FindBySlug(ctx context.Context, slug string) ([]*entity.FailedFetch, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.FailedFetch), args.Error(1)
}

func (m *MockFailedFetchRepo) Delete(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

type MockSynchronizer struct {
	mock.Mock
}

func (m *MockSynchronizer) SyncDailyContent(ctx context.Context, req SyncRequest) entity.SyncResult {
	args := m.Called(ctx, req)
	return args.Get(0).(entity.SyncResult)
}

func (m *MockSynchronizer) SyncCustomer(ctx context.Context, slug, trigger string) entity.SyncResult {
	args := m.Called(ctx, slug, trigger)
	return args.Get(0).(entity.SyncResult)
}

func (m *MockSynchronizer) RunScheduled(ctx context.Context, hour int, now time.Time) (*entity.BatchReport, error) {
	args := m.Called(ctx, hour, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.BatchReport), args.Error(1)
}

func noopRelease(context.Context) error { return nil }

func okPage(url, html string) *entity.CrawledPage {
	return &entity.CrawledPage{
		URL:        url,
		FinalURL:   url,
		HTTPStatus: 200,
		RawHTML:    &html,
		FetchedAt:  time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
		Outcome:    entity.OutcomeSuccess,
		Attempts:   1,
	}
}

func failedPage(url string, outcome entity.FetchOutcome, reason string) *entity.CrawledPage {
	return &entity.CrawledPage{
		URL:         url,
		FetchedAt:   time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
		ErrorReason: &reason,
		Outcome:     outcome,
		Attempts:    1,
	}
}
