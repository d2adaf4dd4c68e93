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

const messageColumns = `message_id, submission_id, message_text, next_message_to_send, timezone, last_sent_time`

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{
		db: db,
	}
}

// GetByID retrieves a single message.
func (r *messageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE message_id = $1`

	var msg models.Message
	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %s: %w", id, models.ErrNotFound)
		}
		return nil, storeError("get message", err)
	}

	return &msg, nil
}

// ListBySubmission retrieves all messages of a submission in no particular
// order; callers walk the chain through NextMessageID.
func (r *messageRepository) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE submission_id = $1`

	var messages []*models.Message
	if err := r.db.SelectContext(ctx, &messages, query, submissionID); err != nil {
		return nil, storeError("list messages", err)
	}

	return messages, nil
}
