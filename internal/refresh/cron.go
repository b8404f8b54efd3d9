package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler refreshes on a cron schedule. Runs never overlap; a tick that
// arrives while a refresh is in progress is skipped.
type Scheduler struct {
	cron   *cron.Cron
	target Refresher
	logger *slog.Logger
	ctx    context.Context
}

// NewScheduler parses spec (standard five-field syntax or a descriptor such
// as "@every 5m") and evaluates it in loc.
func NewScheduler(spec string, loc *time.Location, target Refresher, logger *slog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	logger = defaultLogger(logger).With("component", "refresh.scheduler")

	adapter := cronLogger{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		target: target,
		logger: logger,
		ctx:    context.Background(),
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("refresh: invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Next returns the next activation after now.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(time.Now())
}

// Run starts the schedule and blocks until ctx is done and any in-flight
// refresh has returned.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.logger.InfoContext(ctx, "refresh schedule started")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.InfoContext(ctx, "refresh schedule stopped")
	return nil
}

func (s *Scheduler) tick() {
	run(s.ctx, s.target, s.logger, "cron")
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
