package locker_test

import (
	"context"
	"errors"
	"parking/config"
	"parking/shared/locker"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SerializesSameKey(t *testing.T) {
	l := locker.NewLocal(time.Second)

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := l.WithLock(context.Background(), "lot-1", func(_ context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				if n > atomic.LoadInt32(&maxSeen) {
					atomic.StoreInt32(&maxSeen, n)
				}

				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)

				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
}

func TestLocal_DifferentKeysDoNotBlock(t *testing.T) {
	l := locker.NewLocal(50 * time.Millisecond)

	err := l.WithLock(context.Background(), "lot-1", func(ctx context.Context) error {
		return l.WithLock(ctx, "lot-2", func(_ context.Context) error { return nil })
	})

	assert.NoError(t, err)
}

func TestLocal_TimesOut(t *testing.T) {
	l := locker.NewLocal(20 * time.Millisecond)

	err := l.WithLock(context.Background(), "lot-1", func(ctx context.Context) error {
		return l.WithLock(ctx, "lot-1", func(_ context.Context) error { return nil })
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, locker.ErrLockTimeout)
}

func TestLocal_ReturnsFnError(t *testing.T) {
	l := locker.NewLocal(time.Second)
	boom := errors.New("boom")

	err := l.WithLock(context.Background(), "lot-1", func(_ context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	// released after a failing fn
	err = l.WithLock(context.Background(), "lot-1", func(_ context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestNew_FallsBackToLocalWithoutRedis(t *testing.T) {
	cfg := &config.Config{}
	cfg.Booking.Lock.Driver = locker.DriverRedis

	l := locker.New(cfg, nil)

	err := l.WithLock(context.Background(), "lot-1", func(_ context.Context) error { return nil })
	assert.NoError(t, err)
}
