package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/repository"
)

// LinkChain returns next[i] for ids so that they form a single cycle in
// input order. A single id links to itself.
func LinkChain(ids []uuid.UUID) []uuid.UUID {
	next := make([]uuid.UUID, len(ids))
	for i := range ids {
		next[i] = ids[(i+1)%len(ids)]
	}
	return next
}

// ValidateChain walks NextMessageID from head len(messages) times and checks
// that every message is visited exactly once before returning to head.
func ValidateChain(head uuid.UUID, messages []*models.Message) error {
	if len(messages) == 0 {
		return models.ErrEmptyContent
	}

	byID := make(map[uuid.UUID]*models.Message, len(messages))
	for _, m := range messages {
		if _, dup := byID[m.ID]; dup {
			return fmt.Errorf("duplicate message %s in chain", m.ID)
		}
		byID[m.ID] = m
	}

	seen := make(map[uuid.UUID]bool, len(messages))
	cur := head
	for i := 0; i < len(messages); i++ {
		m, ok := byID[cur]
		if !ok {
			return fmt.Errorf("chain step %d: message %s: %w", i, cur, models.ErrNotFound)
		}
		if seen[cur] {
			return fmt.Errorf("chain revisits message %s after %d steps", cur, i)
		}
		seen[cur] = true
		cur = m.NextMessageID
	}

	if cur != head {
		return fmt.Errorf("chain does not return to head %s", head)
	}
	return nil
}

// ChainBuilder persists chunks as a circular chain of messages.
type ChainBuilder struct {
	repo   repository.SubmissionRepository
	newID  func() uuid.UUID
	logger *zap.Logger
}

func NewChainBuilder(repo repository.SubmissionRepository, logger *zap.Logger) *ChainBuilder {
	return &ChainBuilder{
		repo:   repo,
		newID:  uuid.New,
		logger: logger,
	}
}

// BuildChain stores one message per chunk, in order, and marks the
// submission ready by pointing it at the first message. Messages and the
// submission update commit together.
func (b *ChainBuilder) BuildChain(ctx context.Context, submissionID uuid.UUID, timezone string, chunks []string) (uuid.UUID, error) {
	var texts []string
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			texts = append(texts, c)
		}
	}
	if len(texts) == 0 {
		return uuid.Nil, models.ErrEmptyContent
	}

	ids := make([]uuid.UUID, len(texts))
	for i := range ids {
		ids[i] = b.newID()
	}
	next := LinkChain(ids)

	messages := make([]*models.Message, len(texts))
	for i, text := range texts {
		messages[i] = &models.Message{
			ID:            ids[i],
			SubmissionID:  submissionID,
			Text:          text,
			NextMessageID: next[i],
			Timezone:      timezone,
		}
	}

	if err := ValidateChain(ids[0], messages); err != nil {
		return uuid.Nil, fmt.Errorf("failed to link message chain: %w", err)
	}

	if err := b.repo.AttachChain(ctx, submissionID, messages); err != nil {
		return uuid.Nil, fmt.Errorf("failed to store message chain: %w", err)
	}

	b.logger.Info("Message chain built",
		zap.String("submissionID", submissionID.String()),
		zap.String("headMessageID", ids[0].String()),
		zap.Int("length", len(messages)))

	return ids[0], nil
}
