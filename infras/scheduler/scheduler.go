package scheduler

import (
	"context"
	"fmt"
	"parking/shared/timezone"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// Job is a named periodic task. Run receives a context that is cancelled on shutdown.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	cron   gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

func New() (*Scheduler, error) {
	cron, err := gocron.NewScheduler(gocron.WithLocation(timezone.Location()))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Register adds a job that never overlaps with its own previous run.
func (s *Scheduler) Register(job Job) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(job.Interval),
		gocron.NewTask(func() {
			started := time.Now()

			if err := job.Run(s.ctx); err != nil {
				log.Error().Err(err).Str("job", job.Name).Msg("scheduled job failed")

				return
			}

			log.Debug().Str("job", job.Name).Dur("took", time.Since(started)).Msg("scheduled job finished")
		}),
		gocron.WithName(job.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.Name, err)
	}

	log.Info().Str("job", job.Name).Dur("interval", job.Interval).Msg("scheduled job registered")

	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Shutdown() error {
	s.cancel()

	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}

	return nil
}
