package service

import (
	"context"
	"fmt"
	"time"

	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/repository"
)

// CursorAdvancer records a successful send on a submission.
type CursorAdvancer struct {
	repo repository.SubmissionRepository
}

func NewCursorAdvancer(repo repository.SubmissionRepository) *CursorAdvancer {
	return &CursorAdvancer{repo: repo}
}

// Advance stamps sent with now and moves the submission cursor to
// sent.NextMessageID. The submission's last_sent_time is left untouched when
// isFirstSend is set, so the immediate send at creation does not shift the
// schedule away from start_time.
//
// The cursor only moves if it still points at sent; otherwise
// models.ErrCursorConflict is returned and nothing is written.
func (a *CursorAdvancer) Advance(ctx context.Context, sub *models.Submission, sent *models.Message, now time.Time, isFirstSend bool) error {
	if sent.SubmissionID != sub.ID {
		return fmt.Errorf("message %s does not belong to submission %s: %w", sent.ID, sub.ID, models.ErrNotFound)
	}

	err := a.repo.AdvanceCursor(ctx, repository.AdvanceParams{
		SubmissionID:   sub.ID,
		SentMessageID:  sent.ID,
		NextMessageID:  sent.NextMessageID,
		SentAt:         now,
		UpdateLastSent: !isFirstSend,
	})
	if err != nil {
		return fmt.Errorf("failed to advance cursor: %w", err)
	}

	return nil
}
