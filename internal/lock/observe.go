package lock

import (
	"context"
	"time"
)

// Observer is told how long every acquisition attempt waited and how it ended,
// and about every release that failed. A release failing with ErrLockNotHeld
// means the action outlived its hold timeout.
type Observer interface {
	ObserveLockAcquire(key string, waited time.Duration, err error)
	ObserveLockRelease(key string, err error)
}

type observedLocker struct {
	inner Locker
	obs   Observer
}

func WithObserver(inner Locker, obs Observer) Locker {
	if obs == nil {
		return inner
	}
	return &observedLocker{inner: inner, obs: obs}
}

func (o *observedLocker) Acquire(ctx context.Context, key string, hold, wait time.Duration) (Lease, error) {
	start := time.Now()
	lease, err := o.inner.Acquire(ctx, key, hold, wait)
	o.obs.ObserveLockAcquire(key, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &observedLease{Lease: lease, obs: o.obs}, nil
}

type observedLease struct {
	Lease
	obs Observer
}

func (l *observedLease) Release(ctx context.Context) error {
	err := l.Lease.Release(ctx)
	if err != nil {
		l.obs.ObserveLockRelease(l.Key(), err)
	}
	return err
}
