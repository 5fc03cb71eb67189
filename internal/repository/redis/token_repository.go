package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
)

// Queue members are scored by an INCR sequence so arrival order is strict even
// for tokens enqueued within the same millisecond.
var enqueueScript = backend.NewScript(`
	if redis.call('ZSCORE', KEYS[1], ARGV[1]) then
		return 0
	end
	local seq = redis.call('INCR', KEYS[2])
	redis.call('ZADD', KEYS[1], seq, ARGV[1])
	return 1
`)

var statusScript = backend.NewScript(`
	if redis.call('ZSCORE', KEYS[2], ARGV[1]) then
		return 'ACTIVE'
	end
	if redis.call('ZSCORE', KEYS[1], ARGV[1]) then
		return 'WAITING'
	end
	return 'EXPIRED'
`)

// Active set members are scored by activation time in unix ms, which doubles
// as the activation timestamp used for TTL expiry.
var activateScript = backend.NewScript(`
	if not redis.call('ZSCORE', KEYS[1], ARGV[1]) then
		return -1
	end
	if redis.call('ZCARD', KEYS[2]) >= tonumber(ARGV[3]) then
		return -2
	end
	redis.call('ZREM', KEYS[1], ARGV[1])
	redis.call('ZADD', KEYS[2], ARGV[2], ARGV[1])
	return 1
`)

// The user index key is derived inside the script, so this assumes a
// single-node Redis rather than a cluster.
var expireScript = backend.NewScript(`
	redis.call('ZREM', KEYS[1], ARGV[1])
	redis.call('ZREM', KEYS[2], ARGV[1])
	local uid = redis.call('HGET', KEYS[3], 'user_id')
	redis.call('DEL', KEYS[3])
	if uid then
		local ukey = ARGV[2] .. uid
		if redis.call('GET', ukey) == ARGV[1] then
			redis.call('DEL', ukey)
		end
	end
	return 1
`)

const (
	activateOK         = 1
	activateNotWaiting = -1
	activateFull       = -2
)

type Options struct {
	KeyPrefix       string
	MaxActiveTokens int
	TokenTTL        time.Duration
	RecordRetention time.Duration
	Now             func() time.Time
}

func (o *Options) setDefaults() {
	if o.KeyPrefix == "" {
		o.KeyPrefix = "concert"
	}
	if o.MaxActiveTokens <= 0 {
		o.MaxActiveTokens = 100
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = 10 * time.Minute
	}
	if o.RecordRetention <= 0 {
		o.RecordRetention = 24 * time.Hour
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type redisTokenRepository struct {
	cli  *backend.Client
	l    logger.Logger
	opts Options
}

func NewRedisTokenRepository(cli *backend.Client, l logger.Logger, opts Options) repository.TokenRepository {
	opts.setDefaults()
	return &redisTokenRepository{
		cli:  cli,
		l:    l,
		opts: opts,
	}
}

func (r *redisTokenRepository) Save(ctx context.Context, tok *models.WaitingToken) error {
	key := r.tokenKey(tok.Token)

	_, err := r.cli.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.HSet(ctx, key,
			"token", tok.Token,
			"user_id", tok.UserID,
			"created_at", tok.CreatedAt.UnixMilli(),
		)
		pipe.Expire(ctx, key, r.opts.RecordRetention)
		pipe.Set(ctx, r.userTokenKey(tok.UserID), tok.Token, r.opts.RecordRetention)
		return nil
	})
	if err != nil {
		r.l.Errorf(ctx, "redisTokenRepository.Save: %v", err)
		return err
	}

	r.l.Debugf(ctx, "redisTokenRepository.Save: token=%s user_id=%s", tok.Token, tok.UserID)

	return nil
}

func (r *redisTokenRepository) FindByToken(ctx context.Context, token string) (*models.WaitingToken, error) {
	vals, err := r.cli.HGetAll(ctx, r.tokenKey(token)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisTokenRepository.FindByToken: %v", err)
		return nil, err
	}

	if len(vals) == 0 {
		return nil, nil
	}

	createdMs, err := strconv.ParseInt(vals["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt token record %s: %w", token, err)
	}

	return &models.WaitingToken{
		Token:     vals["token"],
		UserID:    vals["user_id"],
		CreatedAt: time.UnixMilli(createdMs),
	}, nil
}

func (r *redisTokenRepository) FindByUser(ctx context.Context, userID string) (*models.WaitingToken, error) {
	token, err := r.cli.Get(ctx, r.userTokenKey(userID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, nil
		}

		r.l.Errorf(ctx, "redisTokenRepository.FindByUser: %v", err)
		return nil, err
	}

	return r.FindByToken(ctx, token)
}

func (r *redisTokenRepository) GetTokenStatus(ctx context.Context, token string) (models.TokenStatus, error) {
	res, err := statusScript.Run(ctx, r.cli, []string{r.queueKey(), r.activeKey()}, token).Text()
	if err != nil {
		r.l.Errorf(ctx, "redisTokenRepository.GetTokenStatus: %v", err)
		return models.TokenStatusExpired, err
	}

	return models.TokenStatus(res), nil
}

func (r *redisTokenRepository) AddToWaitingQueue(ctx context.Context, token string) error {
	added, err := enqueueScript.Run(ctx, r.cli, []string{r.queueKey(), r.queueSeqKey()}, token).Int64()
	if err != nil {
		r.l.Errorf(ctx, "redisTokenRepository.AddToWaitingQueue: %v", err)
		return err
	}

	if added > 0 {
		r.l.Debugf(ctx, "redisTokenRepository.AddToWaitingQueue: token=%s", token)
	}

	return nil
}

func (r *redisTokenRepository) GetNextTokensFromQueue(ctx context.Context, n int64) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	tokens, err := r.cli.ZRange(ctx, r.queueKey(), 0, n-1).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisTokenRepository.GetNextTokensFromQueue: %v", err)
		return nil, err
	}

	return tokens, nil
}

func (r *redisTokenRepository) GetQueuePosition(ctx context.Context, token string) (int64, error) {
	rank, err := r.cli.ZRank(ctx, r.queueKey(), token).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return -1, nil // Not in queue
		}

		r.l.Errorf(ctx, "redisTokenRepository.GetQueuePosition: %v", err)
		return 0, err
	}

	return rank, nil
}

func (r *redisTokenRepository) GetQueueSize(ctx context.Context) (int64, error) {
	count, err := r.cli.ZCard(ctx, r.queueKey()).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisTokenRepository.GetQueueSize: %v", err)
		return 0, err
	}

	return count, nil
}

func (r *redisTokenRepository) ActivateToken(ctx context.Context, token string) error {
	code, err := activateScript.Run(ctx, r.cli,
		[]string{r.queueKey(), r.activeKey()},
		token, r.opts.Now().UnixMilli(), r.opts.MaxActiveTokens,
	).Int64()
	if err != nil {
		r.l.Errorf(ctx, "redisTokenRepository.ActivateToken: %v", err)
		return err
	}

	switch code {
	case activateOK:
		r.l.Debugf(ctx, "redisTokenRepository.ActivateToken: token=%s", token)
		return nil
	case activateNotWaiting:
		return repository.ErrTokenNotWaiting
	case activateFull:
		return repository.ErrActiveSetFull
	default:
		return fmt.Errorf("unexpected activation result %d for token %s", code, token)
	}
}

func (r *redisTokenRepository) ExpireToken(ctx context.Context, token string) error {
	err := expireScript.Run(ctx, r.cli,
		[]string{r.queueKey(), r.activeKey(), r.tokenKey(token)},
		token, r.userTokenKey(""),
	).Err()
	if err != nil {
		r.l.Errorf(ctx, "redisTokenRepository.ExpireToken: %v", err)
		return err
	}

	r.l.Debugf(ctx, "redisTokenRepository.ExpireToken: token=%s", token)

	return nil
}

func (r *redisTokenRepository) CountActiveTokens(ctx context.Context) (int64, error) {
	count, err := r.cli.ZCard(ctx, r.activeKey()).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisTokenRepository.CountActiveTokens: %v", err)
		return 0, err
	}

	return count, nil
}

func (r *redisTokenRepository) FindExpiredActiveTokens(ctx context.Context) ([]string, error) {
	cutoff := r.opts.Now().Add(-r.opts.TokenTTL).UnixMilli()

	tokens, err := r.cli.ZRangeByScore(ctx, r.activeKey(), &backend.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisTokenRepository.FindExpiredActiveTokens: %v", err)
		return nil, err
	}

	return tokens, nil
}

func (r *redisTokenRepository) tokenKey(token string) string {
	return fmt.Sprintf("%s:token:%s", r.opts.KeyPrefix, token)
}

func (r *redisTokenRepository) userTokenKey(userID string) string {
	return fmt.Sprintf("%s:user_token:%s", r.opts.KeyPrefix, userID)
}

func (r *redisTokenRepository) queueKey() string {
	return fmt.Sprintf("%s:queue", r.opts.KeyPrefix)
}

func (r *redisTokenRepository) queueSeqKey() string {
	return fmt.Sprintf("%s:queue:seq", r.opts.KeyPrefix)
}

func (r *redisTokenRepository) activeKey() string {
	return fmt.Sprintf("%s:active", r.opts.KeyPrefix)
}
