package service

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/popeskul/cadence/internal/config"
	"github.com/popeskul/cadence/internal/extractor"
	"github.com/popeskul/cadence/internal/lock"
	"github.com/popeskul/cadence/internal/repository"
	"github.com/popeskul/cadence/internal/transport"
)

type Service struct {
	Dispatch   DispatchService
	Processing ProcessingService
	Submission SubmissionService
	Scheduler  SchedulerService
	Health     HealthService
}

func NewService(
	cfg *config.Config,
	repo repository.Repository,
	redisClient *redis.Client,
	logger *zap.Logger,
) (*Service, error) {
	sender, err := transport.New(&cfg.Transport, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create message transport: %w", err)
	}

	sentCache := transport.NewSentCache(redisClient, time.Duration(cfg.Transport.SentCacheTTL)*time.Hour)
	locker := lock.NewRedisLocker(redisClient)

	dispatcher := NewDispatcher(&cfg.Dispatcher, repo, sender, locker, sentCache, logger)
	processor := NewChunkProcessor(cfg, repo, extractor.New(&cfg.Chunking, cfg.Attachments.Dir, logger), dispatcher, sender, locker, logger)
	submissionService := NewSubmissionService(cfg, repo, logger)
	schedulerService := NewSchedulerService(cfg, processor, dispatcher, logger)
	healthService := NewHealthService(repo, redisClient, schedulerService, sender.Breaker())

	return &Service{
		Dispatch:   dispatcher,
		Processing: processor,
		Submission: submissionService,
		Scheduler:  schedulerService,
		Health:     healthService,
	}, nil
}
