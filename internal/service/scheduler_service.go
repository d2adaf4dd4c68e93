package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/popeskul/cadence/internal/config"
	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/scheduler"
)

type schedulerService struct {
	scheduler  *scheduler.Scheduler
	processing ProcessingService
	dispatch   DispatchService
	now        func() time.Time
	logger     *zap.Logger
}

// NewSchedulerService runs one chunking pass and then one dispatcher run per
// tick, the same sequence the external cron triggers.
func NewSchedulerService(
	cfg *config.Config,
	processing ProcessingService,
	dispatch DispatchService,
	logger *zap.Logger,
) SchedulerService {
	interval := time.Duration(cfg.Scheduler.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	svc := &schedulerService{
		processing: processing,
		dispatch:   dispatch,
		now:        time.Now,
		logger:     logger,
	}

	svc.scheduler = scheduler.NewScheduler(logger, interval,
		scheduler.Task{Name: "process-submissions", Run: svc.processSubmissions},
		scheduler.Task{Name: "send-messages", Run: svc.sendMessages},
	)
	return svc
}

func (s *schedulerService) Start() error {
	return s.scheduler.Start(context.Background())
}

func (s *schedulerService) Stop() error {
	return s.scheduler.Stop()
}

func (s *schedulerService) IsRunning() bool {
	return s.scheduler.IsRunning()
}

func (s *schedulerService) processSubmissions(ctx context.Context) error {
	_, err := s.processing.ProcessPending(ctx)
	return err
}

func (s *schedulerService) sendMessages(ctx context.Context) error {
	_, err := s.dispatch.Run(ctx, s.now(), models.DispatchOptions{})
	return err
}
