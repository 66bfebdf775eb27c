package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking/infras/scheduler"
)

func TestScheduler(t *testing.T) {
	s, err := scheduler.New()
	require.NoError(t, err)

	var runs, failures atomic.Int32

	require.NoError(t, s.Register(scheduler.Job{
		Name:     "tick",
		Interval: 20 * time.Millisecond,
		Run: func(_ context.Context) error {
			runs.Add(1)

			return nil
		},
	}))

	require.NoError(t, s.Register(scheduler.Job{
		Name:     "broken",
		Interval: 20 * time.Millisecond,
		Run: func(_ context.Context) error {
			failures.Add(1)

			return errors.New("boom")
		},
	}))

	s.Start()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 2 && failures.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Shutdown())
}

func TestScheduler_ShutdownCancelsRunningJob(t *testing.T) {
	s, err := scheduler.New()
	require.NoError(t, err)

	started := make(chan struct{}, 1)
	cancelled := make(chan struct{}, 1)

	require.NoError(t, s.Register(scheduler.Job{
		Name:     "long",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			select {
			case started <- struct{}{}:
			default:
			}

			<-ctx.Done()

			select {
			case cancelled <- struct{}{}:
			default:
			}

			return ctx.Err()
		},
	}))

	s.Start()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}

	go func() {
		_ = s.Shutdown()
	}()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("running job was not cancelled on shutdown")
	}
}
