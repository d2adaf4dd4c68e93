package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/popeskul/cadence/internal/config"
	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/repository"
)

// CreateSubmissionInput is a new submission as received from the caller.
type CreateSubmissionInput struct {
	UserID   uuid.UUID
	Text     string
	Files    []string
	Cadence  string
	Repeat   string
	Timezone string
}

type submissionService struct {
	repo           repository.Repository
	freeLimit      int
	attachmentsDir string
	now            func() time.Time
	logger         *zap.Logger
}

func NewSubmissionService(cfg *config.Config, repo repository.Repository, logger *zap.Logger) SubmissionService {
	return &submissionService{
		repo:           repo,
		freeLimit:      cfg.Submissions.FreeLimit,
		attachmentsDir: cfg.Attachments.Dir,
		now:            time.Now,
		logger:         logger,
	}
}

// Create stores a submission in its unready state. Chunking happens later in
// ProcessPending, so this returns quickly.
func (s *submissionService) Create(ctx context.Context, input CreateSubmissionInput) (*models.Submission, error) {
	cadence, err := models.ParseCadence(input.Cadence)
	if err != nil {
		return nil, err
	}

	repeat := models.RepeatForever
	if input.Repeat != "" {
		if repeat, err = models.ParseRepeatPolicy(input.Repeat); err != nil {
			return nil, err
		}
	}

	text := strings.TrimSpace(input.Text)
	if text == "" && len(input.Files) == 0 {
		return nil, models.ErrMissingSource
	}

	user, err := s.repo.User().GetByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsSubscribed && s.freeLimit > 0 {
		count, err := s.repo.Submission().CountByUser(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count submissions: %w", err)
		}
		if count >= s.freeLimit {
			return nil, models.ErrSubmissionLimitReached
		}
	}

	timezone := input.Timezone
	if timezone == "" {
		timezone = user.Timezone
	}
	if timezone == "" {
		timezone = "UTC"
	}

	id := uuid.New()
	startTime, err := ComputeStartTime(id, timezone, cadence, s.now())
	if err != nil {
		return nil, err
	}

	sub := &models.Submission{
		ID:            id,
		UserID:        user.ID,
		TextField:     sql.NullString{String: text, Valid: text != ""},
		UploadedFiles: append([]string{}, input.Files...),
		Cadence:       cadence,
		Repeat:        repeat,
		Timezone:      timezone,
		StartTime:     startTime,
	}

	if err := s.repo.Submission().Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.logger.Info("Submission created",
		zap.String("submissionID", sub.ID.String()),
		zap.String("userID", user.ID.String()),
		zap.String("cadence", string(cadence)),
		zap.Time("startTime", startTime))

	return sub, nil
}

func (s *submissionService) List(ctx context.Context, userID uuid.UUID) ([]*models.Submission, error) {
	subs, err := s.repo.Submission().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

// Delete removes the submission, its messages and its attachments directory.
// Attachment removal is best effort.
func (s *submissionService) Delete(ctx context.Context, submissionID uuid.UUID) error {
	sub, err := s.repo.Submission().GetByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to get submission: %w", err)
	}

	if err := s.repo.Submission().Delete(ctx, submissionID); err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}

	s.removeAttachments(sub)

	s.logger.Info("Submission deleted", zap.String("submissionID", submissionID.String()))
	return nil
}

func (s *submissionService) removeAttachments(sub *models.Submission) {
	if s.attachmentsDir == "" {
		return
	}
	dir := filepath.Join(s.attachmentsDir, sub.UserID.String(), sub.ID.String())
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Failed to delete attachments",
			zap.String("submissionID", sub.ID.String()),
			zap.String("dir", dir),
			zap.Error(err))
	}
}
