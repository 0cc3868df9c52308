// workers/scheduler.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Scheduler runs deferred and recurring background jobs.
type Scheduler struct {
	sched  gocron.Scheduler
	clock  clockwork.Clock
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(clock clockwork.Clock, log *zap.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLogger(gocronLogger{log.Sugar()}),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{sched: sched, clock: clock, log: log, ctx: ctx, cancel: cancel}, nil
}

// Defer runs fn once, delay from now. A non-positive delay runs it right away.
func (s *Scheduler) Defer(name string, delay time.Duration, fn func(context.Context)) error {
	start := gocron.OneTimeJobStartImmediately()
	if delay > 0 {
		start = gocron.OneTimeJobStartDateTime(s.clock.Now().Add(delay))
	}
	_, err := s.sched.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(s.wrap(name, fn)),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Daily runs fn every day at hour:00 in the scheduler's location.
func (s *Scheduler) Daily(name string, hour uint, fn func(context.Context)) error {
	_, err := s.sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, 0, 0))),
		gocron.NewTask(s.wrap(name, fn)),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) wrap(name string, fn func(context.Context)) func() {
	return func() {
		start := s.clock.Now()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("❌ job panicked", zap.String("job", name), zap.Any("panic", r))
			}
		}()
		fn(s.ctx)
		s.log.Debug("job finished", zap.String("job", name), zap.Duration("elapsed", s.clock.Since(start)))
	}
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Shutdown cancels running jobs and waits for them to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.sched.Shutdown()
}

// gocronLogger adapts zap to gocron's key/value logger.
type gocronLogger struct {
	l *zap.SugaredLogger
}

func (g gocronLogger) Debug(msg string, args ...any) { g.l.Debugw(msg, args...) }
func (g gocronLogger) Info(msg string, args ...any)  { g.l.Infow(msg, args...) }
func (g gocronLogger) Warn(msg string, args ...any)  { g.l.Warnw(msg, args...) }
func (g gocronLogger) Error(msg string, args ...any) { g.l.Errorw(msg, args...) }
