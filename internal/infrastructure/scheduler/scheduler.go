package scheduler

import (
	"context"
	"time"

	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/habits"
	"go.uber.org/zap"
)

// StreakReconciler recomputes stored streaks from completion history.
type StreakReconciler interface {
	ReconcileStreaks(ctx context.Context) (*habits.ReconcileReport, error)
}

type Scheduler struct {
	reconciler    StreakReconciler
	reconcileHour int
	logger        *zap.Logger
	now           func() time.Time
}

func NewScheduler(reconciler StreakReconciler, reconcileHour int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reconciler:    reconciler,
		reconcileHour: reconcileHour,
		logger:        logger,
		now:           time.Now,
	}
}

// Start runs a reconciliation in the background immediately and then once a
// day at the configured UTC hour until ctx is cancelled. The returned channel
// is closed when the loop exits.
func (s *Scheduler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.runReconcile(ctx)
		for {
			now := s.now().UTC()
			next := nextRun(now, s.reconcileHour)
			s.logger.Info("Streak reconciliation scheduled",
				zap.Time("next_run", next),
				zap.Duration("time_until_next_run", next.Sub(now)),
			)

			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				s.logger.Info("Scheduler stopped")
				return
			case <-timer.C:
				s.runReconcile(ctx)
			}
		}
	}()
	return done
}

// nextRun returns the first instant strictly after now at hour:00 UTC.
func nextRun(now time.Time, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) runReconcile(ctx context.Context) {
	startTime := s.now()
	s.logger.Info("Starting streak reconciliation", zap.Time("start_time", startTime))

	report, err := s.reconciler.ReconcileStreaks(ctx)
	if err != nil {
		s.logger.Error("Streak reconciliation failed", zap.Error(err))
		return
	}

	s.logger.Info("Completed streak reconciliation",
		zap.Int("scanned", report.Scanned),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", s.now().Sub(startTime)),
	)
}
