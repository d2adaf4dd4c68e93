package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one step of a tick. Tasks of a tick run in order; a failing task
// does not stop the ones after it.
type Task struct {
	Name string
	Run  func(context.Context) error
}

// Scheduler runs its tasks immediately on start and then on every interval.
type Scheduler struct {
	logger    *zap.Logger
	interval  time.Duration
	tasks     []Task
	stopCh    chan struct{}
	doneCh    chan struct{}
	isRunning bool
	mu        sync.RWMutex
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(logger *zap.Logger, interval time.Duration, tasks ...Task) *Scheduler {
	return &Scheduler{
		logger:   logger,
		interval: interval,
		tasks:    tasks,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrSchedulerAlreadyRunning
	}

	s.isRunning = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run(ctx, s.stopCh, s.doneCh)

	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval), zap.Int("tasks", len(s.tasks)))
	return nil
}

// Stop halts the scheduler and waits for the current tick to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh

	s.logger.Info("Scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context canceled")
			return
		case <-stopCh:
			s.logger.Info("Scheduler stop signal received")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs every task once, bounded by the interval so ticks never overlap.
func (s *Scheduler) tick(ctx context.Context) {
	timeout := s.interval - time.Second
	if timeout <= 0 {
		timeout = s.interval
	}
	tickCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, task := range s.tasks {
		start := time.Now()
		if err := task.Run(tickCtx); err != nil {
			s.logger.Error("Scheduled task failed", zap.String("task", task.Name), zap.Error(err))
			continue
		}
		s.logger.Debug("Scheduled task completed",
			zap.String("task", task.Name),
			zap.Duration("duration", time.Since(start)))
	}
}
