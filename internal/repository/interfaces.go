package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/popeskul/cadence/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// Repository interface defines all repository operations.
type Repository interface {
	// Ping checks database connectivity
	Ping(ctx context.Context) error

	Submission() SubmissionRepository
	Message() MessageRepository
	User() UserRepository
}

// SubmissionRepository interface defines submission operations.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *models.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*models.DispatchCandidate, error)
	ListDispatchable(ctx context.Context) ([]*models.DispatchCandidate, error)
	ListPending(ctx context.Context, limit int) ([]*models.Submission, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Submission, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// AttachChain inserts the linked messages and points the submission at
	// the first one in a single transaction.
	AttachChain(ctx context.Context, submissionID uuid.UUID, messages []*models.Message) error

	// AdvanceCursor records a send. The cursor update only applies while the
	// submission still points at the sent message.
	AdvanceCursor(ctx context.Context, params AdvanceParams) error
}

// MessageRepository interface defines message operations.
type MessageRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]*models.Message, error)
}

// UserRepository interface defines user operations.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// AdvanceParams describes one cursor advance.
type AdvanceParams struct {
	SubmissionID   uuid.UUID
	SentMessageID  uuid.UUID
	NextMessageID  uuid.UUID
	SentAt         time.Time
	UpdateLastSent bool
}
