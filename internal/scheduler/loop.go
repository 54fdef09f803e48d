package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthchecker/internal/domain"
)

type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

type cycleRunner interface {
	RunCycle(ctx context.Context) ([]domain.Result, error)
}

// Loop runs cycles back to back, sleeping Interval after each completed
// cycle. Cycles never overlap.
type Loop struct {
	Logger   *zap.Logger
	Runner   cycleRunner
	Interval time.Duration

	running atomic.Bool
}

func NewLoop(logger *zap.Logger, runner cycleRunner, interval time.Duration) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{Logger: logger, Runner: runner, Interval: interval}
}

// Run blocks until ctx is cancelled and then returns nil.
func (l *Loop) Run(ctx context.Context) error {
	if l.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", l.Interval)
	}
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("loop already running")
	}
	defer l.running.Store(false)

	l.Logger.Info("health_checker_started", zap.Duration("interval", l.Interval))
	defer l.Logger.Info("health_checker_stopped")

	for {
		if _, err := l.Runner.RunCycle(ctx); err != nil && !errors.Is(err, ErrCycleAbandoned) {
			l.Logger.Warn("cycle_error", zap.Error(err))
		}
		if ctx.Err() != nil {
			return nil
		}

		// Sleep starts when the cycle has completed.
		timer := time.NewTimer(l.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (l *Loop) State() State {
	if l.running.Load() {
		return StateRunning
	}
	return StateStopped
}
