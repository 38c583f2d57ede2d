// Package schedule fires pipeline runs on a cron expression and on demand.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is the slice of the pipeline runner the scheduler needs. Overlap
// protection lives in the runner, not here.
type Runner interface {
	RunOnce(ctx context.Context) error
}

// Config holds the scheduler knobs.
type Config struct {
	Expression string
	Location   *time.Location
	RunOnStart bool
}

// Scheduler owns the cron loop. Start and Stop bracket its lifetime; Trigger
// may be called at any time in between.
type Scheduler struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
	cron   *cron.Cron
}

// New builds a Scheduler that evaluates cfg.Expression in cfg.Location.
func New(cfg Config, runner Runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		logger: logger,
		cron:   cron.New(cron.WithLocation(cfg.Location)),
	}
}

// Start registers the cron entry and begins firing. When run-on-start is
// configured it also triggers one run immediately. Cron fires hand off to a
// goroutine so the cron loop never blocks on a pipeline run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.Expression, func() {
		s.logger.Info("cron schedule fired", "expression", s.cfg.Expression)
		go s.Trigger(ctx)
	}); err != nil {
		return fmt.Errorf("schedule: register cron expression %q: %w", s.cfg.Expression, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		"expression", s.cfg.Expression,
		"timezone", s.cfg.Location.String(),
		"run_on_start", s.cfg.RunOnStart)
	if s.cfg.RunOnStart {
		go s.Trigger(ctx)
	}
	return nil
}

// Trigger runs the pipeline once. Run failures are logged and swallowed
// because the runner has already persisted the failed run and stage logs.
func (s *Scheduler) Trigger(ctx context.Context) {
	if err := s.runner.RunOnce(ctx); err != nil {
		s.logger.Error("triggered pipeline run failed", "error", err)
	}
}

// Stop halts the cron loop. In-flight pipeline runs keep going; the caller
// decides how long to wait for them.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
