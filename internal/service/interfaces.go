package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/popeskul/cadence/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// DispatchService runs the batch dispatcher.
type DispatchService interface {
	Run(ctx context.Context, now time.Time, opts models.DispatchOptions) (*models.DispatchResult, error)
}

// ProcessingService builds message chains for submissions that have none yet.
type ProcessingService interface {
	ProcessPending(ctx context.Context) (*models.ProcessResult, error)
}

type SubmissionService interface {
	Create(ctx context.Context, input CreateSubmissionInput) (*models.Submission, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Submission, error)
	Delete(ctx context.Context, submissionID uuid.UUID) error
}

type SchedulerService interface {
	Start() error
	Stop() error
	IsRunning() bool
}

type HealthService interface {
	GetHealth(ctx context.Context) *HealthStatus
}

// ContentExtractor turns a submission's source into ordered chunks.
type ContentExtractor interface {
	Extract(ctx context.Context, sub *models.Submission) ([]string, error)
}

// Locker hands out short-lived per-key claims.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// SentRecorder remembers provider ids of delivered messages.
type SentRecorder interface {
	Record(ctx context.Context, providerID string, messageID uuid.UUID, sentAt time.Time) error
}

// BreakerStatus reports the transport circuit breaker.
type BreakerStatus interface {
	State() string
	Counts() (requests, failures uint32)
}
