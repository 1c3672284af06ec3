package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/internal/hashgate"
	"github.com/user/restaurant-kb-sync/internal/repository"
)

// 2025-03-03 is a Monday.
var monday = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

type syncFixture struct {
	resolver  *MockContentResolver
	pusher    *MockPusher
	customers *MockCustomerRepo
	locks     *MockLockRepo
	sync      Synchronizer
}

func newSyncFixture(now time.Time) *syncFixture {
	f := &syncFixture{
		resolver:  new(MockContentResolver),
		pusher:    new(MockPusher),
		customers: new(MockCustomerRepo),
		locks:     new(MockLockRepo),
	}
	f.sync = NewSynchronizer(f.resolver, f.pusher, f.customers, f.locks, zap.NewNop(),
		WithClock(func() time.Time { return now }),
		WithLocation(time.UTC),
	)
	return f
}

func validRequest() SyncRequest {
	return SyncRequest{
		Slug:            "restaurang-x",
		Name:            "Restaurang X",
		WebsiteURL:      "https://x.se",
		KnowledgeBaseID: "kb-1",
	}
}

func TestSyncDailyContent_MissingConfiguration(t *testing.T) {
	f := newSyncFixture(monday)
	req := validRequest()
	req.KnowledgeBaseID = ""

	res := f.sync.SyncDailyContent(context.Background(), req)

	assert.Equal(t, entity.SyncFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrMissingConfiguration)
	assert.Contains(t, res.Reason, "knowledge base id")
	f.resolver.AssertNotCalled(t, "ResolveDaily", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncDailyContent_NoContent(t *testing.T) {
	f := newSyncFixture(monday)
	f.resolver.On("ResolveDaily", mock.Anything, "restaurang-x", "https://x.se").
		Return(&entity.DailyContent{Content: "  \n "}, nil)

	res := f.sync.SyncDailyContent(context.Background(), validRequest())

	assert.Equal(t, entity.SyncSkipped, res.Status)
	assert.Equal(t, ReasonNoContent, res.Reason)
	f.pusher.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func TestSyncDailyContent_Unchanged(t *testing.T) {
	f := newSyncFixture(monday)
	f.resolver.On("ResolveDaily", mock.Anything, "restaurang-x", "https://x.se").
		Return(&entity.DailyContent{Content: "Dagens: Pasta 119 kr\n"}, nil)

	req := validRequest()
	fp := hashgate.ComputeFingerprint("Dagens: Pasta 119 kr")
	req.PreviousFingerprint = &fp

	res := f.sync.SyncDailyContent(context.Background(), req)

	assert.Equal(t, entity.SyncSkipped, res.Status)
	assert.Equal(t, ReasonUnchanged, res.Reason)
	f.pusher.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func TestSyncDailyContent_Changed(t *testing.T) {
	f := newSyncFixture(monday)
	f.resolver.On("ResolveDaily", mock.Anything, "restaurang-x", "https://x.se").
		Return(&entity.DailyContent{Content: "Dagens: Fisk 129 kr"}, nil)
	f.pusher.On("Push", mock.Anything, mock.MatchedBy(func(doc *entity.KnowledgeDocument) bool {
		return doc.Name == "Restaurang X – Dagens 2025-03-03" &&
			doc.Text == "Dagens: Fisk 129 kr" &&
			doc.KnowledgeBaseID == "kb-1"
	})).Return("doc-42", nil)

	req := validRequest()
	old := hashgate.ComputeFingerprint("Dagens: Pasta 119 kr")
	req.PreviousFingerprint = &old

	res := f.sync.SyncDailyContent(context.Background(), req)

	require.Equal(t, entity.SyncSuccess, res.Status, res.Reason)
	assert.Equal(t, "doc-42", res.DocumentID)
	assert.Equal(t, hashgate.ComputeFingerprint("Dagens: Fisk 129 kr"), res.Fingerprint)
	f.pusher.AssertExpectations(t)
}

func TestSyncDailyContent_PushFailure(t *testing.T) {
	f := newSyncFixture(monday)
	f.resolver.On("ResolveDaily", mock.Anything, mock.Anything, mock.Anything).
		Return(&entity.DailyContent{Content: "Dagens: Fisk"}, nil)
	f.pusher.On("Push", mock.Anything, mock.Anything).Return("", errors.New("status 500"))

	res := f.sync.SyncDailyContent(context.Background(), validRequest())

	assert.Equal(t, entity.SyncFailed, res.Status)
	assert.Empty(t, res.Fingerprint)
	assert.Contains(t, res.Reason, "status 500")
}

func TestSyncDailyContent_ResolverFailure(t *testing.T) {
	f := newSyncFixture(monday)
	f.resolver.On("ResolveDaily", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("unexpected status 500"))

	res := f.sync.SyncDailyContent(context.Background(), validRequest())

	assert.Equal(t, entity.SyncFailed, res.Status)
	f.pusher.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func TestSyncDailyContent_ResolverNotFoundFails(t *testing.T) {
	f := newSyncFixture(monday)
	f.resolver.On("ResolveDaily", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: no daily content for restaurang-x", repository.ErrNotFound))

	res := f.sync.SyncDailyContent(context.Background(), validRequest())

	assert.Equal(t, entity.SyncFailed, res.Status)
	assert.ErrorIs(t, res.Err, repository.ErrNotFound)
	assert.NotEqual(t, ReasonNoContent, res.Reason)
	f.pusher.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func customer(slug string, schedule entity.UpdateSchedule, hour int) *entity.Customer {
	return &entity.Customer{
		Slug:            slug,
		Name:            slug,
		WebsiteURL:      "https://" + slug + ".se",
		KnowledgeBaseID: "kb-" + slug,
		UpdateSchedule:  schedule,
		UpdateHour:      hour,
		SyncState:       entity.SyncState{Version: 3},
	}
}

func TestSyncCustomer_PersistsFingerprint(t *testing.T) {
	f := newSyncFixture(monday)
	c := customer("x", entity.ScheduleDaily, 9)

	f.locks.On("Acquire", mock.Anything, "sync:x", defaultLockTTL).Return(noopRelease, nil)
	f.customers.On("FindBySlug", mock.Anything, "x").Return(c, nil)
	f.resolver.On("ResolveDaily", mock.Anything, "x", "https://x.se").Return(&entity.DailyContent{Content: "Soppa"}, nil)
	f.pusher.On("Push", mock.Anything, mock.Anything).Return("doc-1", nil)
	f.customers.On("UpdateSyncState", mock.Anything, "x", int64(3), hashgate.ComputeFingerprint("Soppa"), monday).Return(nil)

	res := f.sync.SyncCustomer(context.Background(), "x", TriggerManual)

	assert.Equal(t, entity.SyncSuccess, res.Status)
	f.customers.AssertExpectations(t)
}

// memCustomers keeps one customer and applies UpdateSyncState the way the
// stores do.
type memCustomers struct {
	c *entity.Customer
}

func (m *memCustomers) FindBySlug(_ context.Context, slug string) (*entity.Customer, error) {
	if m.c.Slug != slug {
		return nil, repository.ErrNotFound
	}
	cp := *m.c
	return &cp, nil
}

func (m *memCustomers) ListScheduled(context.Context) ([]*entity.Customer, error) {
	return []*entity.Customer{m.c}, nil
}

func (m *memCustomers) UpdateSyncState(_ context.Context, slug string, expectedVersion int64, fp entity.Fingerprint, at time.Time) error {
	if m.c.Slug != slug {
		return repository.ErrNotFound
	}
	if m.c.SyncState.Version != expectedVersion {
		return repository.ErrSyncStateConflict
	}
	m.c.SyncState = entity.SyncState{LastFingerprint: &fp, LastSyncAt: &at, Version: expectedVersion + 1}
	return nil
}

func TestSyncCustomer_SecondRunIsUnchanged(t *testing.T) {
	resolver := new(MockContentResolver)
	pusher := new(MockPusher)
	locks := new(MockLockRepo)
	store := &memCustomers{c: customer("x", entity.ScheduleDaily, 9)}
	sync := NewSynchronizer(resolver, pusher, store, locks, zap.NewNop(),
		WithClock(func() time.Time { return monday }),
		WithLocation(time.UTC),
	)

	locks.On("Acquire", mock.Anything, "sync:x", mock.Anything).Return(noopRelease, nil)
	resolver.On("ResolveDaily", mock.Anything, "x", "https://x.se").Return(&entity.DailyContent{Content: "Soppa"}, nil)
	pusher.On("Push", mock.Anything, mock.Anything).Return("doc-1", nil)

	first := sync.SyncCustomer(context.Background(), "x", TriggerManual)
	require.Equal(t, entity.SyncSuccess, first.Status, first.Reason)
	assert.Equal(t, int64(4), store.c.SyncState.Version)

	second := sync.SyncCustomer(context.Background(), "x", TriggerManual)
	assert.Equal(t, entity.SyncSkipped, second.Status)
	assert.Equal(t, ReasonUnchanged, second.Reason)
	assert.Equal(t, int64(4), store.c.SyncState.Version)
	pusher.AssertNumberOfCalls(t, "Push", 1)
}

func TestSyncCustomer_VersionConflict(t *testing.T) {
	f := newSyncFixture(monday)
	c := customer("x", entity.ScheduleDaily, 9)

	f.locks.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return(noopRelease, nil)
	f.customers.On("FindBySlug", mock.Anything, "x").Return(c, nil)
	f.resolver.On("ResolveDaily", mock.Anything, mock.Anything, mock.Anything).Return(&entity.DailyContent{Content: "Soppa"}, nil)
	f.pusher.On("Push", mock.Anything, mock.Anything).Return("doc-1", nil)
	f.customers.On("UpdateSyncState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(repository.ErrSyncStateConflict)

	res := f.sync.SyncCustomer(context.Background(), "x", TriggerManual)

	assert.Equal(t, entity.SyncFailed, res.Status)
	assert.ErrorIs(t, res.Err, repository.ErrSyncStateConflict)
	assert.Equal(t, "doc-1", res.DocumentID)
}

func TestSyncCustomer_LockHeld(t *testing.T) {
	f := newSyncFixture(monday)
	f.locks.On("Acquire", mock.Anything, "sync:x", mock.Anything).Return(nil, repository.ErrLockHeld)

	res := f.sync.SyncCustomer(context.Background(), "x", TriggerManual)

	assert.Equal(t, entity.SyncSkipped, res.Status)
	assert.Equal(t, ReasonSyncInProgress, res.Reason)
	f.customers.AssertNotCalled(t, "FindBySlug", mock.Anything, mock.Anything)
}

func TestSyncCustomer_UnknownSlug(t *testing.T) {
	f := newSyncFixture(monday)
	released := false
	f.locks.On("Acquire", mock.Anything, mock.Anything, mock.Anything).
		Return(func(context.Context) error { released = true; return nil }, nil)
	f.customers.On("FindBySlug", mock.Anything, "nope").Return(nil, repository.ErrNotFound)

	res := f.sync.SyncCustomer(context.Background(), "nope", TriggerManual)

	assert.Equal(t, entity.SyncFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrRestaurantNotFound)
	assert.True(t, released)
}

func TestRunScheduled_IsolatesFailures(t *testing.T) {
	f := newSyncFixture(monday)
	a := customer("a", entity.ScheduleDaily, 9)
	b := customer("b", entity.ScheduleDaily, 9)
	c := customer("c", entity.ScheduleDaily, 9)
	later := customer("later", entity.ScheduleDaily, 17)

	f.customers.On("ListScheduled", mock.Anything).Return([]*entity.Customer{a, b, c, later}, nil)
	for _, cust := range []*entity.Customer{a, b, c} {
		f.locks.On("Acquire", mock.Anything, "sync:"+cust.Slug, mock.Anything).Return(noopRelease, nil)
		f.customers.On("FindBySlug", mock.Anything, cust.Slug).Return(cust, nil)
	}
	f.resolver.On("ResolveDaily", mock.Anything, "a", mock.Anything).Return(&entity.DailyContent{Content: "Lax"}, nil)
	f.resolver.On("ResolveDaily", mock.Anything, "b", mock.Anything).Return(nil, errors.New("unexpected status 500"))
	f.resolver.On("ResolveDaily", mock.Anything, "c", mock.Anything).Return(&entity.DailyContent{Content: "Gryta"}, nil)
	f.pusher.On("Push", mock.Anything, mock.Anything).Return("doc", nil)
	f.customers.On("UpdateSyncState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	report, err := f.sync.RunScheduled(context.Background(), 9, monday)
	require.NoError(t, err)

	require.Len(t, report.Success, 2)
	assert.Equal(t, "a", report.Success[0].Slug)
	assert.Equal(t, "c", report.Success[1].Slug)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "b", report.Failed[0].Slug)
	assert.Empty(t, report.Skipped)
	f.resolver.AssertNotCalled(t, "ResolveDaily", mock.Anything, "later", mock.Anything)
}

func TestRunScheduled_ReportsEveryCustomerAfterCancel(t *testing.T) {
	f := newSyncFixture(monday)
	a := customer("a", entity.ScheduleDaily, 9)
	b := customer("b", entity.ScheduleDaily, 9)
	c := customer("c", entity.ScheduleDaily, 9)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.customers.On("ListScheduled", mock.Anything).Return([]*entity.Customer{a, b, c}, nil)
	f.locks.On("Acquire", mock.Anything, "sync:a", mock.Anything).Return(noopRelease, nil)
	f.customers.On("FindBySlug", mock.Anything, "a").Return(a, nil)
	f.resolver.On("ResolveDaily", mock.Anything, "a", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)

	report, err := f.sync.RunScheduled(ctx, 9, monday)
	require.NoError(t, err)

	assert.Empty(t, report.Success)
	assert.Empty(t, report.Skipped)
	require.Len(t, report.Failed, 3)
	for i, slug := range []string{"a", "b", "c"} {
		assert.Equal(t, slug, report.Failed[i].Slug)
		assert.ErrorIs(t, report.Failed[i].Err, context.Canceled)
	}
	f.locks.AssertNotCalled(t, "Acquire", mock.Anything, "sync:b", mock.Anything)
	f.customers.AssertNotCalled(t, "FindBySlug", mock.Anything, "c")
}

func TestRunScheduled_ResolverNotFoundIsFailed(t *testing.T) {
	f := newSyncFixture(monday)
	a := customer("a", entity.ScheduleDaily, 9)
	f.customers.On("ListScheduled", mock.Anything).Return([]*entity.Customer{a}, nil)
	f.locks.On("Acquire", mock.Anything, "sync:a", mock.Anything).Return(noopRelease, nil)
	f.customers.On("FindBySlug", mock.Anything, "a").Return(a, nil)
	f.resolver.On("ResolveDaily", mock.Anything, "a", mock.Anything).
		Return(nil, fmt.Errorf("%w: no daily content for a", repository.ErrNotFound))

	report, err := f.sync.RunScheduled(context.Background(), 9, monday)
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "a", report.Failed[0].Slug)
	assert.Empty(t, report.Skipped)
}

func TestRunScheduled_DefaultsToCurrentHour(t *testing.T) {
	f := newSyncFixture(monday)
	c := customer("a", entity.ScheduleDaily, 9)
	f.customers.On("ListScheduled", mock.Anything).Return([]*entity.Customer{c}, nil)
	f.locks.On("Acquire", mock.Anything, "sync:a", mock.Anything).Return(noopRelease, nil)
	f.customers.On("FindBySlug", mock.Anything, "a").Return(c, nil)
	f.resolver.On("ResolveDaily", mock.Anything, "a", mock.Anything).Return(&entity.DailyContent{}, nil)

	report, err := f.sync.RunScheduled(context.Background(), -1, monday)
	require.NoError(t, err)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, ReasonNoContent, report.Skipped[0].Reason)
}

func TestRunScheduled_ListError(t *testing.T) {
	f := newSyncFixture(monday)
	f.customers.On("ListScheduled", mock.Anything).Return(nil, errors.New("db down"))

	_, err := f.sync.RunScheduled(context.Background(), 9, monday)
	assert.Error(t, err)
}

func TestShouldRun(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)

	tests := []struct {
		name     string
		customer *entity.Customer
		hour     int
		now      time.Time
		want     bool
	}{
		{"daily matching hour", customer("a", entity.ScheduleDaily, 9), 9, tuesday, true},
		{"daily other hour", customer("a", entity.ScheduleDaily, 9), 10, tuesday, false},
		{"weekly on monday", customer("a", entity.ScheduleWeekly, 9), 9, monday, true},
		{"weekly on tuesday", customer("a", entity.ScheduleWeekly, 9), 9, tuesday, false},
		{"weekly monday other hour", customer("a", entity.ScheduleWeekly, 9), 8, monday, false},
		{"none", customer("a", entity.ScheduleNone, 9), 9, monday, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRun(tt.customer, tt.hour, tt.now))
		})
	}
}
