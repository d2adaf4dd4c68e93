package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/repository"
	repomocks "github.com/popeskul/cadence/internal/repository/mocks"
	"github.com/popeskul/cadence/internal/service"
)

func TestCursorAdvancer_Advance(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	sub := &models.Submission{ID: uuid.New()}
	sent := &models.Message{ID: uuid.New(), SubmissionID: sub.ID, NextMessageID: uuid.New()}

	tests := []struct {
		name        string
		sent        *models.Message
		isFirstSend bool
		setupMocks  func(*repomocks.MockSubmissionRepository)
		errIs       error
	}{
		{
			name: "scheduled send stamps last sent time",
			sent: sent,
			setupMocks: func(m *repomocks.MockSubmissionRepository) {
				m.EXPECT().AdvanceCursor(gomock.Any(), repository.AdvanceParams{
					SubmissionID:   sub.ID,
					SentMessageID:  sent.ID,
					NextMessageID:  sent.NextMessageID,
					SentAt:         now,
					UpdateLastSent: true,
				}).Return(nil)
			},
		},
		{
			name:        "first send still moves the cursor",
			sent:        sent,
			isFirstSend: true,
			setupMocks: func(m *repomocks.MockSubmissionRepository) {
				m.EXPECT().AdvanceCursor(gomock.Any(), repository.AdvanceParams{
					SubmissionID:   sub.ID,
					SentMessageID:  sent.ID,
					NextMessageID:  sent.NextMessageID,
					SentAt:         now,
					UpdateLastSent: false,
				}).Return(nil)
			},
		},
		{
			name: "conflict is passed through",
			sent: sent,
			setupMocks: func(m *repomocks.MockSubmissionRepository) {
				m.EXPECT().AdvanceCursor(gomock.Any(), gomock.Any()).Return(models.ErrCursorConflict)
			},
			errIs: models.ErrCursorConflict,
		},
		{
			name:       "message of another submission",
			sent:       &models.Message{ID: uuid.New(), SubmissionID: uuid.New()},
			setupMocks: func(m *repomocks.MockSubmissionRepository) {},
			errIs:      models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := repomocks.NewMockSubmissionRepository(ctrl)
			tt.setupMocks(repo)

			err := service.NewCursorAdvancer(repo).Advance(context.Background(), sub, tt.sent, now, tt.isFirstSend)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
				return
			}
			assert.NoError(t, err)
		})
	}
}
