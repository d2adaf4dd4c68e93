package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/popeskul/cadence/internal/api"
	"github.com/popeskul/cadence/internal/repository"
)

const healthCheckTimeout = 2 * time.Second

type healthService struct {
	repo             repository.Repository
	redisClient      *redis.Client
	schedulerService SchedulerService
	breaker          BreakerStatus
}

func NewHealthService(
	repo repository.Repository,
	redisClient *redis.Client,
	schedulerService SchedulerService,
	breaker BreakerStatus,
) HealthService {
	return &healthService{
		repo:             repo,
		redisClient:      redisClient,
		schedulerService: schedulerService,
		breaker:          breaker,
	}
}

func (s *healthService) GetHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status: api.Healthy,
	}

	if s.schedulerService.IsRunning() {
		status.SchedulerStatus = api.HealthResponseSchedulerStatusRunning
	} else {
		status.SchedulerStatus = api.HealthResponseSchedulerStatusStopped
	}

	status.DatabaseStatus = s.checkDatabaseHealth(ctx)
	status.RedisStatus = s.checkRedisHealth(ctx)

	state := api.HealthResponseCircuitBreakerState(s.breaker.State())
	requests, failures := s.breaker.Counts()
	status.CircuitBreakerState = state
	if requests > 0 {
		failureRate := float64(failures) / float64(requests) * 100
		status.CircuitBreakerStatus = fmt.Sprintf("Requests: %d, Failures: %d (%.1f%%)", requests, failures, failureRate)
	} else {
		status.CircuitBreakerStatus = "No requests yet"
	}

	if status.DatabaseStatus != api.HealthResponseDatabaseStatusConnected || status.RedisStatus != api.HealthResponseRedisStatusConnected {
		status.Status = api.Unhealthy
	}

	// Open breaker overrides: the API still serves but nothing is delivered.
	if state == api.Open {
		status.Status = api.Degraded
	}

	return status
}

func (s *healthService) checkDatabaseHealth(ctx context.Context) api.HealthResponseDatabaseStatus {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		return api.HealthResponseDatabaseStatusDisconnected
	}
	return api.HealthResponseDatabaseStatusConnected
}

func (s *healthService) checkRedisHealth(ctx context.Context) api.HealthResponseRedisStatus {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		return api.HealthResponseRedisStatusDisconnected
	}
	return api.HealthResponseRedisStatusConnected
}
