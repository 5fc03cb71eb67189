package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type localEntry struct {
	owner   string
	expires time.Time
}

// LocalLocker is an in-process Locker for single-node runs and tests.
// It honours the hold timeout the same way the Redis locker does.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localEntry
	retry time.Duration
	now   func() time.Time
}

func NewLocalLocker(retryInterval time.Duration) *LocalLocker {
	if retryInterval <= 0 {
		retryInterval = 5 * time.Millisecond
	}
	return &LocalLocker{
		held:  make(map[string]localEntry),
		retry: retryInterval,
		now:   time.Now,
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string, hold, wait time.Duration) (Lease, error) {
	owner := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		if l.tryAcquire(key, owner, hold) {
			return &localLease{locker: l, key: key, owner: owner}, nil
		}

		if err := sleepUntilRetry(ctx, key, deadline, l.retry); err != nil {
			return nil, err
		}
	}
}

func (l *LocalLocker) tryAcquire(key, owner string, hold time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return false
	}

	l.held[key] = localEntry{owner: owner, expires: now.Add(hold)}
	return true
}

func (l *LocalLocker) release(key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.held[key]
	if !ok || e.owner != owner {
		return ErrLockNotHeld
	}

	delete(l.held, key)
	if !l.now().Before(e.expires) {
		return ErrLockNotHeld
	}
	return nil
}

type localLease struct {
	locker *LocalLocker
	key    string
	owner  string
}

func (l *localLease) Key() string {
	return l.key
}

func (l *localLease) Release(context.Context) error {
	return l.locker.release(l.key, l.owner)
}
