// Package lock runs actions inside named, time-bounded critical sections.
//
// A lock has two independent budgets: the hold timeout is how long the lock
// survives a crashed holder, the wait timeout is how long a caller blocks
// trying to get it. Acquisition that runs out of wait budget fails with
// errors.KindLockAcquisitionTimeout and the action is never run.
package lock

import (
	"context"
	"errors"
	"sort"
	"time"

	errs "github.com/vogiaan1904/ticketbottle-concert/internal/errors"
)

// ErrLockNotHeld is returned by Release when the hold timeout already
// expired and the lock may belong to someone else.
var ErrLockNotHeld = errors.New("lock is no longer held by this lease")

const releaseTimeout = 2 * time.Second

type Lease interface {
	Key() string
	Release(ctx context.Context) error
}

type Locker interface {
	// Acquire blocks for at most wait. A zero wait tries exactly once.
	Acquire(ctx context.Context, key string, hold, wait time.Duration) (Lease, error)
}

// Execute runs action once while holding key. The lock is released on every
// exit path, including a panic in action, which is re-raised after release.
func Execute[T any](
	ctx context.Context,
	locker Locker,
	key string,
	hold, wait time.Duration,
	action func(ctx context.Context) (T, error),
) (T, error) {
	return ExecuteMulti(ctx, locker, []string{key}, hold, wait, action)
}

// ExecuteMulti holds every key while running action. Keys are de-duplicated
// and acquired in lexicographic order so two callers asking for the same set
// in different orders cannot deadlock. The wait budget covers all keys
// together; locks are released in reverse order.
func ExecuteMulti[T any](
	ctx context.Context,
	locker Locker,
	keys []string,
	hold, wait time.Duration,
	action func(ctx context.Context) (T, error),
) (res T, err error) {
	ordered := SortKeys(keys)
	deadline := time.Now().Add(wait)

	leases := make([]Lease, 0, len(ordered))
	defer func() {
		releaseAll(ctx, leases)
	}()

	for _, key := range ordered {
		remaining := max(time.Until(deadline), 0)

		lease, err := locker.Acquire(ctx, key, hold, remaining)
		if err != nil {
			return res, err
		}
		leases = append(leases, lease)
	}

	return action(ctx)
}

func releaseAll(ctx context.Context, leases []Lease) {
	// Release must still reach the store if the caller's context is done.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	for i := len(leases) - 1; i >= 0; i-- {
		_ = leases[i].Release(rctx)
	}
}

// SortKeys returns the distinct keys in lexicographic order.
func SortKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// sleepUntilRetry waits for the next attempt. It returns a timeout error when
// the budget cannot fit another attempt or ctx is done.
func sleepUntilRetry(ctx context.Context, key string, deadline time.Time, interval time.Duration) error {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return errs.LockAcquisitionTimeout(key, nil)
	}

	t := time.NewTimer(min(interval, remaining))
	defer t.Stop()

	select {
	case <-ctx.Done():
		return errs.LockAcquisitionTimeout(key, ctx.Err())
	case <-t.C:
		return nil
	}
}
