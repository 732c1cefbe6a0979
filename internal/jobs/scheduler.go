// Package jobs runs the periodic background work of the service.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/campus-scheduler/internal/application"
)

// DigestSender produces the daily summary.
type DigestSender interface {
	SendDailyDigest(ctx context.Context) (application.Digest, error)
}

// Purger drops expired entries from an in-memory store.
type Purger interface {
	Purge() int
}

// Scheduler wraps a cron runner whose schedules are evaluated in the campus timezone.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
}

// New constructs a scheduler. Panicking jobs are recovered and logged, and a job still
// running when its next tick arrives is skipped.
func New(location *time.Location, logger *slog.Logger) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	adapter := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		logger:  logger,
		timeout: time.Minute,
	}
}

// AddDigest registers the daily digest on a standard five field cron spec.
func (s *Scheduler) AddDigest(spec string, sender DigestSender) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := sender.SendDailyDigest(ctx); err != nil {
			s.logger.ErrorContext(ctx, "daily digest job failed", "error", err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("schedule digest %q: %w", spec, err)
	}
	return id, nil
}

// AddPurge registers periodic removal of expired one-time codes.
func (s *Scheduler) AddPurge(spec string, purger Purger) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		if removed := purger.Purge(); removed > 0 {
			s.logger.Info("purged expired codes", "removed", removed)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("schedule purge %q: %w", spec, err)
	}
	return id, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cron jobs started", "entries", len(s.cron.Entries()))
}

// Stop halts scheduling and waits for running jobs or ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the next activation time of an entry.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
