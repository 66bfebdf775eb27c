package locker

import (
	"context"
	"errors"
	"fmt"
	"parking/config"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DriverRedis = "redis"
	DriverLocal = "local"

	keyPrefix = "lock:"

	defaultTTL  = 5 * time.Second
	defaultWait = 3 * time.Second

	retryInitialInterval = 10 * time.Millisecond
	retryMaxInterval     = 200 * time.Millisecond
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

// releaseScript deletes the key only while it still holds our token, so an
// expired holder cannot release a lock that has since been re-acquired.
var releaseScript = goRedis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serializes work per key. fn runs while the lock is held.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

func New(cfg *config.Config, client *goRedis.Client) Locker {
	ttl := time.Duration(cfg.Booking.Lock.TTLMillis) * time.Millisecond
	if ttl <= 0 {
		ttl = defaultTTL
	}

	wait := time.Duration(cfg.Booking.Lock.WaitMillis) * time.Millisecond
	if wait <= 0 {
		wait = defaultWait
	}

	if cfg.Booking.Lock.Driver == DriverLocal || client == nil {
		log.Info().Msg("Using in-process lot locks")

		return NewLocal(wait)
	}

	return &redisLocker{client: client, ttl: ttl, wait: wait}
}

type redisLocker struct {
	client *goRedis.Client
	ttl    time.Duration
	wait   time.Duration
}

func (l *redisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lockKey := keyPrefix + key
	token := uuid.NewString()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialInterval
	policy.MaxInterval = retryMaxInterval
	policy.MaxElapsedTime = l.wait

	err := backoff.Retry(func() error {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to acquire lock: %w", err))
		}

		if !ok {
			return ErrLockTimeout
		}

		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}

	defer func() {
		if err := releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{lockKey}, token).Err(); err != nil {
			log.Error().Err(err).Str("key", lockKey).Msg("failed to release lock")
		}
	}()

	return fn(ctx)
}

type localLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
	wait  time.Duration
}

type entry struct {
	sem  chan struct{}
	refs int
}

// NewLocal returns a keyed mutex for a single process.
func NewLocal(wait time.Duration) Locker {
	if wait <= 0 {
		wait = defaultWait
	}

	return &localLocker{locks: map[string]*entry{}, wait: wait}
}

func (l *localLocker) acquire(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.locks[key] = e
	}

	e.refs++

	return e
}

func (l *localLocker) forget(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *localLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	e := l.acquire(key)
	defer l.forget(key, e)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
	case <-timer.C:
		return fmt.Errorf("lock %s: %w", key, ErrLockTimeout)
	case <-ctx.Done():
		return fmt.Errorf("lock %s: %w", key, ctx.Err())
	}

	defer func() { <-e.sem }()

	return fn(ctx)
}
