package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

// Job is one recurring unit of work.
type Job struct {
	Name      string
	Every     time.Duration
	Immediate bool
	Run       func(ctx context.Context)
}

// Scheduler runs jobs on fixed intervals. A job never overlaps itself and a
// panic inside a job is logged and swallowed.
type Scheduler struct {
	s      gocron.Scheduler
	logger *logging.Logger
}

func NewScheduler(ctx context.Context, jobs []Job, logger *logging.Logger) (*Scheduler, error) {
	logger = logging.OrDefault(logger).Named("scheduler")

	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	for _, job := range jobs {
		opts := []gocron.JobOption{
			gocron.WithName(job.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		}
		if job.Immediate {
			opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
		}
		if _, err := s.NewJob(gocron.DurationJob(job.Every), gocron.NewTask(guard(ctx, logger, job)), opts...); err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("failed to create %s job: %w", job.Name, err)
		}
		logger.Info("job registered", "job", job.Name, "every", job.Every.String())
	}

	return &Scheduler{s: s, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.s.Start()
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

// JobNames lists registered jobs in registration order.
func (s *Scheduler) JobNames() []string {
	jobs := s.s.Jobs()
	out := make([]string, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job.Name())
	}
	return out
}

func guard(ctx context.Context, logger *logging.Logger, job Job) func() {
	return func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("job panicked", "job", job.Name, "panic", rec, "stack", string(debug.Stack()))
			}
		}()
		if ctx.Err() != nil {
			return
		}
		job.Run(ctx)
	}
}
