package repository

import (
	"context"
	"time"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

// CustomerRepository reads customer records and persists their sync state.
type CustomerRepository interface {
	FindBySlug(ctx context.Context, slug string) (*entity.Customer, error)
	// ListScheduled returns customers whose schedule is not "none", in a
	// stable order.
	ListScheduled(ctx context.Context) ([]*entity.Customer, error)
	// UpdateSyncState stores a new fingerprint only if the stored version
	// still equals expectedVersion, otherwise it returns ErrSyncStateConflict.
	UpdateSyncState(ctx context.Context, slug string, expectedVersion int64, fp entity.Fingerprint, at time.Time) error
}
