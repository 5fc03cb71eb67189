// Package memory holds in-process repository implementations for single-node
// deployments and tests. State is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository"
)

type Options struct {
	MaxActiveTokens int
	TokenTTL        time.Duration
	Now             func() time.Time
}

type queued struct {
	token string
	seq   uint64
}

type memoryTokenRepository struct {
	mu   sync.Mutex
	opts Options

	records    map[string]models.WaitingToken
	userTokens map[string]string
	queue      []queued
	queueIdx   map[string]uint64
	seq        uint64
	active     map[string]time.Time
}

func NewTokenRepository(opts Options) repository.TokenRepository {
	if opts.MaxActiveTokens <= 0 {
		opts.MaxActiveTokens = 100
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &memoryTokenRepository{
		opts:       opts,
		records:    make(map[string]models.WaitingToken),
		userTokens: make(map[string]string),
		queueIdx:   make(map[string]uint64),
		active:     make(map[string]time.Time),
	}
}

func (r *memoryTokenRepository) Save(_ context.Context, tok *models.WaitingToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[tok.Token] = *tok
	r.userTokens[tok.UserID] = tok.Token
	return nil
}

func (r *memoryTokenRepository) FindByToken(_ context.Context, token string) (*models.WaitingToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.find(token), nil
}

func (r *memoryTokenRepository) FindByUser(_ context.Context, userID string) (*models.WaitingToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.userTokens[userID]
	if !ok {
		return nil, nil
	}
	return r.find(token), nil
}

func (r *memoryTokenRepository) find(token string) *models.WaitingToken {
	rec, ok := r.records[token]
	if !ok {
		return nil
	}
	return &rec
}

func (r *memoryTokenRepository) GetTokenStatus(_ context.Context, token string) (models.TokenStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[token]; ok {
		return models.TokenStatusActive, nil
	}
	if _, ok := r.queueIdx[token]; ok {
		return models.TokenStatusWaiting, nil
	}
	return models.TokenStatusExpired, nil
}

func (r *memoryTokenRepository) AddToWaitingQueue(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.queueIdx[token]; ok {
		return nil
	}

	r.seq++
	r.queue = append(r.queue, queued{token: token, seq: r.seq})
	r.queueIdx[token] = r.seq
	return nil
}

func (r *memoryTokenRepository) GetNextTokensFromQueue(_ context.Context, n int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 {
		return []string{}, nil
	}
	if n > int64(len(r.queue)) {
		n = int64(len(r.queue))
	}

	out := make([]string, 0, n)
	for _, q := range r.queue[:n] {
		out = append(out, q.token)
	}
	return out, nil
}

func (r *memoryTokenRepository) GetQueuePosition(_ context.Context, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.position(token), nil
}

func (r *memoryTokenRepository) position(token string) int64 {
	seq, ok := r.queueIdx[token]
	if !ok {
		return -1
	}

	// queue is append-only in seq order, so a binary search finds the index.
	i := sort.Search(len(r.queue), func(i int) bool { return r.queue[i].seq >= seq })
	return int64(i)
}

func (r *memoryTokenRepository) GetQueueSize(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.queue)), nil
}

func (r *memoryTokenRepository) ActivateToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos := r.position(token)
	if pos < 0 {
		return repository.ErrTokenNotWaiting
	}
	if len(r.active) >= r.opts.MaxActiveTokens {
		return repository.ErrActiveSetFull
	}

	r.dequeue(token, pos)
	r.active[token] = r.opts.Now()
	return nil
}

func (r *memoryTokenRepository) dequeue(token string, pos int64) {
	r.queue = append(r.queue[:pos], r.queue[pos+1:]...)
	delete(r.queueIdx, token)
}

func (r *memoryTokenRepository) ExpireToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pos := r.position(token); pos >= 0 {
		r.dequeue(token, pos)
	}
	delete(r.active, token)

	if rec, ok := r.records[token]; ok {
		if r.userTokens[rec.UserID] == token {
			delete(r.userTokens, rec.UserID)
		}
		delete(r.records, token)
	}
	return nil
}

func (r *memoryTokenRepository) CountActiveTokens(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.active)), nil
}

func (r *memoryTokenRepository) FindExpiredActiveTokens(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.opts.Now().Add(-r.opts.TokenTTL)

	type entry struct {
		token string
		at    time.Time
	}
	var expired []entry
	for tok, at := range r.active {
		if at.Before(cutoff) {
			expired = append(expired, entry{tok, at})
		}
	}

	sort.Slice(expired, func(i, j int) bool { return expired[i].at.Before(expired[j].at) })

	out := make([]string, 0, len(expired))
	for _, e := range expired {
		out = append(out, e.token)
	}
	return out, nil
}
