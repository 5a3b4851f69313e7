package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/kumarabd/gokit/logger"
)

// Config contains configuration for the in-process periodic trigger
type Config struct {
	Enabled  bool   `json:"enabled" yaml:"enabled" default:"false"`
	Schedule string `json:"schedule" yaml:"schedule" default:"0 1 * * *"`
}

// Job is run on every tick
type Job func(ctx context.Context) error

// Scheduler fires a job on a cron schedule evaluated in UTC
type Scheduler struct {
	expr  *cronexpr.Expression
	job   Job
	log   *logger.Handler
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func New(cfg *Config, job Job, l *logger.Handler) (*Scheduler, error) {
	expr, err := cronexpr.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	return &Scheduler{
		expr:  expr,
		job:   job,
		log:   l,
		now:   time.Now,
		after: time.After,
	}, nil
}

// Next returns the first tick strictly after t
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.expr.Next(t.UTC())
}

// Run blocks until ctx is done, running the job at every tick. A failed
// run is logged and not retried; the next tick runs as usual.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.Next(s.now())
		if next.IsZero() {
			s.log.Warn().Msg("schedule has no upcoming ticks, scheduler stopping")
			return
		}
		s.log.Info().Msgf("next scheduled export at %s", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(s.now())):
		}

		if err := s.job(ctx); err != nil {
			s.log.Error().Err(err).Msg("scheduled export failed")
		}
	}
}
