// Package lock serializes ledger writers across processes.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"papertrader/internal/uuid"

	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock could not be taken before the
// context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out an exclusive lease. The returned release func must be
// called exactly once.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Local is an in-process mutex. It is the default when Redis is not
// configured.
type Local struct {
	mu sync.Mutex
}

// NewLocal creates an in-process locker.
func NewLocal() *Local { return &Local{} }

// Acquire implements Locker.
func (l *Local) Acquire(ctx context.Context) (func(), error) {
	acquired := make(chan struct{})
	go func() {
		l.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return l.mu.Unlock, nil
	case <-ctx.Done():
		// Unlock as soon as the pending Lock succeeds.
		go func() {
			<-acquired
			l.mu.Unlock()
		}()
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a single-instance lease lock built on SET NX PX.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	retry  time.Duration
}

// RedisOption configures a Redis locker.
type RedisOption func(*Redis)

// WithTTL sets the lease duration. A crashed holder's lease expires after it.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithRetryInterval sets how often a waiting caller polls.
func WithRetryInterval(d time.Duration) RedisOption {
	return func(r *Redis) { r.retry = d }
}

// NewRedis creates a locker over key.
func NewRedis(client redis.UniversalClient, key string, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: key, ttl: 30 * time.Second, retry: 50 * time.Millisecond}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire implements Locker. It polls until the key is free or ctx ends.
func (r *Redis) Acquire(ctx context.Context) (func(), error) {
	token := uuid.New()
	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if ok {
			return func() {
				// Use a fresh context so release still runs after ctx is cancelled.
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, r.client, []string{r.key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}
