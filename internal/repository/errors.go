package repository

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrSyncStateConflict = errors.New("sync state was modified concurrently")
	ErrLockHeld          = errors.New("lock is held by another worker")
	ErrQueueEmpty        = errors.New("queue is empty")
)
