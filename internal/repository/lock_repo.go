package repository

import (
	"context"
	"time"
)

// LockRepository provides short-lived exclusive locks keyed by name.
type LockRepository interface {
	// Acquire returns a release func, or ErrLockHeld if another holder owns it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
