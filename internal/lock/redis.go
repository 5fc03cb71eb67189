package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	errs "github.com/vogiaan1904/ticketbottle-concert/internal/errors"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
)

// Delete only if we still own it; an expired lock may have a new holder.
var releaseScript = backend.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

type RedisOptions struct {
	KeyPrefix     string
	RetryInterval time.Duration
}

// RedisLocker is a single-instance Redis lock using SET NX PX with a random
// owner value.
type RedisLocker struct {
	cli  *backend.Client
	l    logger.Logger
	opts RedisOptions
}

func NewRedisLocker(cli *backend.Client, l logger.Logger, opts RedisOptions) *RedisLocker {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "concert:lock"
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 50 * time.Millisecond
	}
	return &RedisLocker{cli: cli, l: l, opts: opts}
}

func (r *RedisLocker) Acquire(ctx context.Context, key string, hold, wait time.Duration) (Lease, error) {
	owner := uuid.NewString()
	rkey := r.opts.KeyPrefix + ":" + key
	deadline := time.Now().Add(wait)

	for {
		ok, err := r.cli.SetNX(ctx, rkey, owner, hold).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errs.LockAcquisitionTimeout(key, ctx.Err())
			}
			r.l.Errorf(ctx, "lock.RedisLocker.Acquire: key=%s: %v", key, err)
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return &redisLease{locker: r, key: key, rkey: rkey, owner: owner}, nil
		}

		if err := sleepUntilRetry(ctx, key, deadline, r.opts.RetryInterval); err != nil {
			r.l.Warnf(ctx, "lock.RedisLocker.Acquire: key=%s wait=%s: %v", key, wait, err)
			return nil, err
		}
	}
}

type redisLease struct {
	locker *RedisLocker
	key    string
	rkey   string
	owner  string
}

func (l *redisLease) Key() string {
	return l.key
}

func (l *redisLease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.locker.cli, []string{l.rkey}, l.owner).Int64()
	if err != nil {
		l.locker.l.Errorf(ctx, "lock.redisLease.Release: key=%s: %v", l.key, err)
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	if n == 0 {
		l.locker.l.Warnf(ctx, "lock.redisLease.Release: key=%s expired before release", l.key)
		return ErrLockNotHeld
	}
	return nil
}
