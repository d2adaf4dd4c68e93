package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/popeskul/cadence/internal/models"
)

const submissionColumns = `s.submission_id, s.user_id, s.text_field, s.uploaded_files, s.cadence, s.repeat,
		s.timezone, s.start_time, s.message_to_send, s.first_message_id, s.last_sent_time,
		s.created_at, s.updated_at`

const candidateColumns = submissionColumns + `, u.first_name, u.area_code, u.phone_number`

type submissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// Create inserts a submission in its unready state.
func (r *submissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	query := `
		INSERT INTO submissions (submission_id, user_id, text_field, uploaded_files, cadence, repeat, timezone, start_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		sub.ID, sub.UserID, sub.TextField, sub.UploadedFiles, sub.Cadence, sub.Repeat, sub.Timezone, sub.StartTime)
	if err := row.Scan(&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return storeError("create submission", err)
	}

	return nil
}

// GetByID retrieves a submission without its owner.
func (r *submissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions s WHERE s.submission_id = $1`

	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("submission %s: %w", id, models.ErrNotFound)
		}
		return nil, storeError("get submission", err)
	}

	return &sub, nil
}

// GetCandidate retrieves a submission joined with its owner's contact details.
func (r *submissionRepository) GetCandidate(ctx context.Context, id uuid.UUID) (*models.DispatchCandidate, error) {
	query := `
		SELECT ` + candidateColumns + `
		FROM submissions s
		JOIN users u ON u.id = s.user_id
		WHERE s.submission_id = $1
	`

	var c models.DispatchCandidate
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("submission %s: %w", id, models.ErrNotFound)
		}
		return nil, storeError("get submission", err)
	}

	return &c, nil
}

// ListDispatchable retrieves every ready submission with its owner's contact
// details. Whether a candidate is due is decided by the caller.
func (r *submissionRepository) ListDispatchable(ctx context.Context) ([]*models.DispatchCandidate, error) {
	query := `
		SELECT ` + candidateColumns + `
		FROM submissions s
		JOIN users u ON u.id = s.user_id
		WHERE s.message_to_send IS NOT NULL
		ORDER BY s.start_time ASC
	`

	var candidates []*models.DispatchCandidate
	if err := r.db.SelectContext(ctx, &candidates, query); err != nil {
		return nil, storeError("list dispatchable submissions", err)
	}

	return candidates, nil
}

// ListPending retrieves submissions still waiting for their message chain,
// oldest first.
func (r *submissionRepository) ListPending(ctx context.Context, limit int) ([]*models.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions s
		WHERE s.message_to_send IS NULL
		ORDER BY s.created_at ASC
		LIMIT $1
	`

	var subs []*models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, limit); err != nil {
		return nil, storeError("list pending submissions", err)
	}

	return subs, nil
}

func (r *submissionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions s
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
	`

	var subs []*models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, storeError("list user submissions", err)
	}

	return subs, nil
}

func (r *submissionRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM submissions WHERE user_id = $1`

	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, storeError("count user submissions", err)
	}

	return count, nil
}

// Delete removes a submission; its messages go with it through the cascade.
func (r *submissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE submission_id = $1`, id)
	if err != nil {
		return storeError("delete submission", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storeError("delete submission", err)
	}
	if affected == 0 {
		return fmt.Errorf("submission %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *submissionRepository) AttachChain(ctx context.Context, submissionID uuid.UUID, messages []*models.Message) error {
	if len(messages) == 0 {
		return models.ErrEmptyContent
	}

	insert := `
		INSERT INTO messages (message_id, submission_id, message_text, next_message_to_send, timezone)
		VALUES ($1, $2, $3, $4, $5)
	`
	attach := `
		UPDATE submissions
		SET message_to_send = $2,
		    first_message_id = $2,
		    updated_at = NOW()
		WHERE submission_id = $1
		  AND message_to_send IS NULL
		  AND first_message_id IS NULL
	`

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, msg := range messages {
			if _, err := tx.ExecContext(ctx, insert, msg.ID, submissionID, msg.Text, msg.NextMessageID, msg.Timezone); err != nil {
				return storeError("insert message", err)
			}
		}

		res, err := tx.ExecContext(ctx, attach, submissionID, messages[0].ID)
		if err != nil {
			return storeError("attach message chain", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return storeError("attach message chain", err)
		}
		if affected == 1 {
			return nil
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM submissions WHERE submission_id = $1)`, submissionID); err != nil {
			return storeError("attach message chain", err)
		}
		if !exists {
			return fmt.Errorf("submission %s: %w", submissionID, models.ErrNotFound)
		}
		return fmt.Errorf("submission %s: %w", submissionID, models.ErrAlreadyChunked)
	})
}

func (r *submissionRepository) AdvanceCursor(ctx context.Context, p AdvanceParams) error {
	moveCursor := `
		UPDATE submissions
		SET message_to_send = $3,
		    last_sent_time = CASE WHEN $4::boolean THEN $5::timestamptz ELSE last_sent_time END,
		    updated_at = $5::timestamptz
		WHERE submission_id = $1
		  AND message_to_send = $2
	`
	stampMessage := `
		UPDATE messages
		SET last_sent_time = $3
		WHERE message_id = $1
		  AND submission_id = $2
	`

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, moveCursor, p.SubmissionID, p.SentMessageID, p.NextMessageID, p.UpdateLastSent, p.SentAt)
		if err != nil {
			return storeError("advance submission cursor", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return storeError("advance submission cursor", err)
		}
		if affected == 0 {
			return fmt.Errorf("submission %s: %w", p.SubmissionID, models.ErrCursorConflict)
		}

		res, err = tx.ExecContext(ctx, stampMessage, p.SentMessageID, p.SubmissionID, p.SentAt)
		if err != nil {
			return storeError("update message last sent time", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return storeError("update message last sent time", err)
		}
		if affected == 0 {
			return fmt.Errorf("message %s: %w", p.SentMessageID, models.ErrNotFound)
		}
		return nil
	})
}
