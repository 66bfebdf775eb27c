// Package jobs registers the engine's periodic background work.
package jobs

import (
	"context"
	"fmt"
	"parking/config"
	"parking/infras/otel"
	"parking/infras/scheduler"
	bookingService "parking/internal/domains/booking/service"
	capacityService "parking/internal/domains/capacity/service"
	"parking/shared"
	"parking/shared/constant"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	JobActivation = "booking.activation"
	JobReconcile  = "capacity.reconcile"
)

type Jobs struct {
	bookings  bookingService.Booking
	ledger    capacityService.Ledger
	cfg       *config.Config
	otel      otel.Otel
	mu        sync.Mutex
	scheduler *scheduler.Scheduler
}

func New(bookings bookingService.Booking, ledger capacityService.Ledger, cfg *config.Config, otel otel.Otel) *Jobs {
	return &Jobs{
		bookings: bookings,
		ledger:   ledger,
		cfg:      cfg,
		otel:     otel,
	}
}

// Definitions lists the jobs with intervals taken from configuration.
func (j *Jobs) Definitions() []scheduler.Job {
	return []scheduler.Job{
		{
			Name:     JobActivation,
			Interval: time.Duration(max(j.cfg.Scheduler.ActivationIntervalSecond, 1)) * time.Second,
			Run:      j.ActivateDue,
		},
		{
			Name:     JobReconcile,
			Interval: time.Duration(max(j.cfg.Scheduler.ReconcileIntervalMinute, 1)) * time.Minute,
			Run:      j.Reconcile,
		},
	}
}

// Start schedules the jobs when the scheduler is enabled. It returns at once.
func (j *Jobs) Start(_ context.Context) {
	if !j.cfg.Scheduler.Enable {
		log.Info().Msg("scheduler disabled, background jobs not started")

		return
	}

	s, err := scheduler.New()
	if err != nil {
		log.Error().Err(err).Msg("failed to start scheduler")

		return
	}

	if err := j.Register(s); err != nil {
		log.Error().Err(err).Msg("failed to start scheduler")

		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.scheduler = s
	j.scheduler.Start()
}

func (j *Jobs) Stop() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.scheduler == nil {
		return nil
	}

	return j.scheduler.Shutdown() //nolint:wrapcheck
}

// Register adds every job to s.
func (j *Jobs) Register(s *scheduler.Scheduler) error {
	for _, job := range j.Definitions() {
		if err := s.Register(job); err != nil {
			return fmt.Errorf("failed to register jobs: %w", err)
		}
	}

	return nil
}

// ActivateDue moves confirmed bookings whose window has begun to active.
func (j *Jobs) ActivateDue(ctx context.Context) (err error) {
	ctx, scope := j.otel.NewScope(ctx, constant.OtelJobScopeName, constant.OtelJobScopeName+"."+JobActivation)
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	activated, err := j.bookings.ActivateDue(shared.SystemContext(ctx))
	if activated > 0 {
		log.Info().Int("activated", activated).Msg("auto-activated due bookings")
	}

	if err != nil {
		return fmt.Errorf("failed to activate due bookings: %w", err)
	}

	return nil
}

// Reconcile rewrites stale organization capacity projections.
func (j *Jobs) Reconcile(ctx context.Context) (err error) {
	ctx, scope := j.otel.NewScope(ctx, constant.OtelJobScopeName, constant.OtelJobScopeName+"."+JobReconcile)
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err := j.ledger.ReconcileAll(shared.SystemContext(ctx)); err != nil {
		return fmt.Errorf("failed to reconcile capacity: %w", err)
	}

	return nil
}
