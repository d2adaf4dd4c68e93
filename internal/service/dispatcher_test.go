package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/popeskul/cadence/internal/config"
	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/repository"
	repomocks "github.com/popeskul/cadence/internal/repository/mocks"
	"github.com/popeskul/cadence/internal/service"
	"github.com/popeskul/cadence/internal/service/mocks"
	"github.com/popeskul/cadence/internal/transport"
	transportmocks "github.com/popeskul/cadence/internal/transport/mocks"
)

var startTime = time.Date(2025, 3, 3, 10, 30, 0, 0, time.UTC)

func seedReady(t *testing.T, store *memStore, user *models.User, cadence models.Cadence, repeat models.RepeatPolicy, chunks ...string) *models.Submission {
	t.Helper()
	ctx := context.Background()

	sub := &models.Submission{
		ID:        uuid.New(),
		UserID:    user.ID,
		Cadence:   cadence,
		Repeat:    repeat,
		Timezone:  "UTC",
		StartTime: startTime,
	}
	require.NoError(t, store.Create(ctx, sub))

	_, err := service.NewChainBuilder(store, zap.NewNop()).BuildChain(ctx, sub.ID, sub.Timezone, chunks)
	require.NoError(t, err)
	return sub
}

func newTestDispatcher(store *memStore, sender *recordingSender, locker service.Locker) *service.Dispatcher {
	cfg := &config.DispatcherConfig{Concurrency: 4, LockTTLSeconds: 60, AdvanceTimeoutSeconds: 5}
	return service.NewDispatcher(cfg, store, sender, locker, nil, zap.NewNop())
}

func TestDispatcher_Run_ThreeChunkCycle(t *testing.T) {
	tests := []struct {
		name     string
		repeat   models.RepeatPolicy
		cadence  models.Cadence
		runs     int
		expected []string
		state    service.State
	}{
		{
			name:     "do-not-repeat stops after one lap",
			repeat:   models.DoNotRepeat,
			cadence:  models.CadenceDaily,
			runs:     6,
			expected: []string{"one.", "two.", "three."},
			state:    service.StateDone,
		},
		{
			name:     "repeat-forever keeps cycling",
			repeat:   models.RepeatForever,
			cadence:  models.CadenceDaily,
			runs:     6,
			expected: []string{"one.", "two.", "three.", "one.", "two.", "three."},
			state:    service.StateActive,
		},
		{
			name:     "repeat-forever hourly over a day",
			repeat:   models.RepeatForever,
			cadence:  models.CadenceHourly,
			runs:     24,
			expected: repeatBodies(24, "one.", "two.", "three."),
			state:    service.StateActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			user := store.addUser("5550100")
			sub := seedReady(t, store, user, tt.cadence, tt.repeat, "one.", "two.", "three.")
			sender := &recordingSender{}
			d := newTestDispatcher(store, sender, newMemLocker())
			ctx := context.Background()

			res, err := d.Run(ctx, startTime.Add(-time.Minute), models.DispatchOptions{})
			require.NoError(t, err)
			assert.Equal(t, 0, res.Processed)

			for i := 0; i < tt.runs; i++ {
				now := startTime.Add(time.Duration(i) * tt.cadence.Interval())

				_, err := d.Run(ctx, now, models.DispatchOptions{})
				require.NoError(t, err)

				// A second run inside the same window sends nothing.
				res, err := d.Run(ctx, now.Add(time.Minute), models.DispatchOptions{})
				require.NoError(t, err)
				assert.Equal(t, 0, res.Processed)
			}

			assert.Equal(t, tt.expected, sender.bodies())

			final, err := store.GetByID(ctx, sub.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.state, service.DeliveryState(final))
		})
	}
}

func repeatBodies(n int, cycle ...string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = cycle[i%len(cycle)]
	}
	return out
}

func TestDispatcher_Run_IsolatesFailures(t *testing.T) {
	store := newMemStore()
	good1 := seedReady(t, store, store.addUser("5550101"), models.CadenceDaily, models.RepeatForever, "a1.", "a2.")
	bad := seedReady(t, store, store.addUser("5550102"), models.CadenceDaily, models.RepeatForever, "b1.", "b2.")
	good2 := seedReady(t, store, store.addUser("5550103"), models.CadenceDaily, models.RepeatForever, "c1.", "c2.")

	sender := &recordingSender{failFor: map[string]bool{"+15550102": true}}
	d := newTestDispatcher(store, sender, newMemLocker())
	ctx := context.Background()

	badHead := store.cursor(bad.ID)

	res, err := d.Run(ctx, startTime, models.DispatchOptions{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Processed)

	statuses := make(map[uuid.UUID]models.SubmissionResult)
	for _, r := range res.Results {
		statuses[r.SubmissionID] = r
	}
	assert.Equal(t, models.ResultStatusSuccess, statuses[good1.ID].Status)
	assert.Equal(t, models.ResultStatusSuccess, statuses[good2.ID].Status)
	assert.Equal(t, models.ResultStatusError, statuses[bad.ID].Status)
	assert.Contains(t, statuses[bad.ID].Error, "invalid number")

	assert.Equal(t, badHead, store.cursor(bad.ID))
	assert.ElementsMatch(t, []string{"a1.", "c1."}, sender.bodies())

	// Only the failed submission is still due and is retried.
	sender.failFor = nil
	res, err = d.Run(ctx, startTime.Add(5*time.Minute), models.DispatchOptions{})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, bad.ID, res.Results[0].SubmissionID)
	assert.Equal(t, models.ResultStatusSuccess, res.Results[0].Status)
}

func TestDispatcher_Run_RecoversPanicPerSubmission(t *testing.T) {
	store := newMemStore()
	good := seedReady(t, store, store.addUser("5550101"), models.CadenceDaily, models.RepeatForever, "a1.", "a2.")
	bad := seedReady(t, store, store.addUser("5550102"), models.CadenceDaily, models.RepeatForever, "b1.", "b2.")

	sender := &recordingSender{panicFor: map[string]bool{"+15550102": true}}
	locker := newMemLocker()
	d := newTestDispatcher(store, sender, locker)
	ctx := context.Background()

	badHead := store.cursor(bad.ID)

	res, err := d.Run(ctx, startTime, models.DispatchOptions{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Results, 2)

	statuses := make(map[uuid.UUID]models.SubmissionResult)
	for _, r := range res.Results {
		statuses[r.SubmissionID] = r
	}
	assert.Equal(t, models.ResultStatusSuccess, statuses[good.ID].Status)
	assert.Equal(t, models.ResultStatusError, statuses[bad.ID].Status)
	assert.Equal(t, "panic: nil provider response", statuses[bad.ID].Error)
	assert.Equal(t, badHead, store.cursor(bad.ID))
	assert.Equal(t, []string{"a1."}, sender.bodies())
	assert.Empty(t, locker.held)

	sender.panicFor = nil
	res, err = d.Run(ctx, startTime.Add(5*time.Minute), models.DispatchOptions{})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, bad.ID, res.Results[0].SubmissionID)
	assert.Equal(t, models.ResultStatusSuccess, res.Results[0].Status)
}

func TestDispatcher_Run_ConcurrentRunsSendOnce(t *testing.T) {
	store := newMemStore()
	var subs []*models.Submission
	for i := 0; i < 5; i++ {
		user := store.addUser(fmt.Sprintf("555020%d", i))
		subs = append(subs, seedReady(t, store, user, models.CadenceDaily, models.RepeatForever, "first.", "second."))
	}

	sender := &recordingSender{delay: 20 * time.Millisecond}
	locker := newMemLocker()
	d1 := newTestDispatcher(store, sender, locker)
	d2 := newTestDispatcher(store, sender, locker)

	var wg sync.WaitGroup
	results := make([]*models.DispatchResult, 2)
	for i, d := range []*service.Dispatcher{d1, d2} {
		i, d := i, d
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := d.Run(context.Background(), startTime, models.DispatchOptions{})
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	assert.Len(t, sender.bodies(), len(subs))
	assert.Equal(t, len(subs), results[0].Processed+results[1].Processed)
	for _, r := range append(results[0].Results, results[1].Results...) {
		assert.Equal(t, models.ResultStatusSuccess, r.Status)
	}
}

func TestDispatcher_Run_FirstSendKeepsSchedule(t *testing.T) {
	store := newMemStore()
	user := store.addUser("5550100")
	sub := seedReady(t, store, user, models.CadenceDaily, models.DoNotRepeat, "one.", "two.", "three.")
	sender := &recordingSender{}
	d := newTestDispatcher(store, sender, newMemLocker())
	ctx := context.Background()

	createdAt := startTime.Add(-20 * time.Hour)
	res, err := d.Run(ctx, createdAt, models.DispatchOptions{SubmissionID: &sub.ID})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, models.ResultStatusSuccess, res.Results[0].Status)

	after, err := store.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, after.LastSentTime.Valid)
	assert.Equal(t, service.StateScheduled, service.DeliveryState(after))

	res, err = d.Run(ctx, createdAt.Add(time.Hour), models.DispatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)

	_, err = d.Run(ctx, startTime, models.DispatchOptions{})
	require.NoError(t, err)
	_, err = d.Run(ctx, startTime.Add(24*time.Hour), models.DispatchOptions{})
	require.NoError(t, err)
	_, err = d.Run(ctx, startTime.Add(48*time.Hour), models.DispatchOptions{})
	require.NoError(t, err)

	// The immediate send took "one."; start_time delivers "two." and the
	// lap closes once the cursor is back at the head.
	assert.Equal(t, []string{"one.", "two.", "three."}, sender.bodies())

	final, err := store.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, service.StateDone, service.DeliveryState(final))
}

func TestDispatcher_Run_SingleMode(t *testing.T) {
	store := newMemStore()
	user := store.addUser("5550100")
	d := newTestDispatcher(store, &recordingSender{}, newMemLocker())
	ctx := context.Background()

	t.Run("missing submission fails the run", func(t *testing.T) {
		id := uuid.New()
		res, err := d.Run(ctx, startTime, models.DispatchOptions{SubmissionID: &id})
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.False(t, res.Success)
		assert.Empty(t, res.Results)
	})

	t.Run("unready submission is reported", func(t *testing.T) {
		sub := &models.Submission{ID: uuid.New(), UserID: user.ID, Cadence: models.CadenceDaily, Repeat: models.RepeatForever, Timezone: "UTC", StartTime: startTime}
		require.NoError(t, store.Create(ctx, sub))

		res, err := d.Run(ctx, startTime, models.DispatchOptions{SubmissionID: &sub.ID})
		require.NoError(t, err)
		require.Len(t, res.Results, 1)
		assert.Equal(t, models.ResultStatusError, res.Results[0].Status)
		assert.Equal(t, models.ErrSubmissionNotReady.Error(), res.Results[0].Error)
	})
}

func TestDispatcher_Run_LoadFailure(t *testing.T) {
	store := newMemStore()
	store.listErr = fmt.Errorf("failed to list: %w", models.ErrStore)
	d := newTestDispatcher(store, &recordingSender{}, newMemLocker())

	res, err := d.Run(context.Background(), startTime, models.DispatchOptions{})
	assert.ErrorIs(t, err, models.ErrStore)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Results)
}

func TestDispatcher_Run_WithMocks(t *testing.T) {
	subID := uuid.New()
	msgID := uuid.New()
	nextID := uuid.New()
	candidate := &models.DispatchCandidate{
		Submission: models.Submission{
			ID:             subID,
			Cadence:        models.CadenceDaily,
			Repeat:         models.RepeatForever,
			StartTime:      startTime,
			MessageToSend:  uuid.NullUUID{UUID: msgID, Valid: true},
			FirstMessageID: uuid.NullUUID{UUID: msgID, Valid: true},
		},
		Recipient: models.Recipient{AreaCode: "1", PhoneNumber: "5550100"},
	}
	msg := &models.Message{ID: msgID, SubmissionID: subID, Text: "hello.", NextMessageID: nextID}

	tests := []struct {
		name       string
		setupMocks func(*repomocks.MockSubmissionRepository, *repomocks.MockMessageRepository, *transportmocks.MockSender, *mocks.MockLocker, *mocks.MockSentRecorder)
		status     models.ResultStatus
		errIs      error
		processed  int
	}{
		{
			name: "records provider id after advancing",
			setupMocks: func(subs *repomocks.MockSubmissionRepository, msgs *repomocks.MockMessageRepository, sender *transportmocks.MockSender, locker *mocks.MockLocker, sent *mocks.MockSentRecorder) {
				locker.EXPECT().Acquire(gomock.Any(), subID.String(), time.Minute).Return("tok", true, nil)
				locker.EXPECT().Release(gomock.Any(), subID.String(), "tok").Return(nil)
				subs.EXPECT().GetByID(gomock.Any(), subID).Return(&candidate.Submission, nil)
				msgs.EXPECT().GetByID(gomock.Any(), msgID).Return(msg, nil)
				sender.EXPECT().Send(gomock.Any(), "+15550100", "hello.").Return(&transport.SendResult{ProviderID: "SM1"}, nil)
				subs.EXPECT().AdvanceCursor(gomock.Any(), repository.AdvanceParams{
					SubmissionID:   subID,
					SentMessageID:  msgID,
					NextMessageID:  nextID,
					SentAt:         startTime,
					UpdateLastSent: true,
				}).Return(nil)
				sent.EXPECT().Record(gomock.Any(), "SM1", msgID, startTime).Return(errors.New("redis down"))
			},
			status:    models.ResultStatusSuccess,
			processed: 1,
		},
		{
			name: "cursor conflict is reported",
			setupMocks: func(subs *repomocks.MockSubmissionRepository, msgs *repomocks.MockMessageRepository, sender *transportmocks.MockSender, locker *mocks.MockLocker, sent *mocks.MockSentRecorder) {
				locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).Return("tok", true, nil)
				locker.EXPECT().Release(gomock.Any(), gomock.Any(), "tok").Return(nil)
				subs.EXPECT().GetByID(gomock.Any(), subID).Return(&candidate.Submission, nil)
				msgs.EXPECT().GetByID(gomock.Any(), msgID).Return(msg, nil)
				sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(&transport.SendResult{ProviderID: "SM1"}, nil)
				subs.EXPECT().AdvanceCursor(gomock.Any(), gomock.Any()).Return(models.ErrCursorConflict)
			},
			status:    models.ResultStatusError,
			errIs:     models.ErrCursorConflict,
			processed: 1,
		},
		{
			name: "claim failure skips the send",
			setupMocks: func(subs *repomocks.MockSubmissionRepository, msgs *repomocks.MockMessageRepository, sender *transportmocks.MockSender, locker *mocks.MockLocker, sent *mocks.MockSentRecorder) {
				locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).Return("", false, errors.New("redis down"))
			},
			status:    models.ResultStatusError,
			processed: 1,
		},
		{
			name: "claimed elsewhere is skipped",
			setupMocks: func(subs *repomocks.MockSubmissionRepository, msgs *repomocks.MockMessageRepository, sender *transportmocks.MockSender, locker *mocks.MockLocker, sent *mocks.MockSentRecorder) {
				locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).Return("", false, nil)
			},
			processed: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := repomocks.NewMockRepository(ctrl)
			subs := repomocks.NewMockSubmissionRepository(ctrl)
			msgs := repomocks.NewMockMessageRepository(ctrl)
			sender := transportmocks.NewMockSender(ctrl)
			locker := mocks.NewMockLocker(ctrl)
			sent := mocks.NewMockSentRecorder(ctrl)

			repo.EXPECT().Submission().Return(subs).AnyTimes()
			repo.EXPECT().Message().Return(msgs).AnyTimes()
			subs.EXPECT().ListDispatchable(gomock.Any()).Return([]*models.DispatchCandidate{candidate}, nil)
			tt.setupMocks(subs, msgs, sender, locker, sent)

			cfg := &config.DispatcherConfig{Concurrency: 1, LockTTLSeconds: 60}
			d := service.NewDispatcher(cfg, repo, sender, locker, sent, zap.NewNop())

			res, err := d.Run(context.Background(), startTime, models.DispatchOptions{})
			require.NoError(t, err)
			assert.True(t, res.Success)
			require.Equal(t, tt.processed, res.Processed)
			if tt.processed == 0 {
				return
			}
			assert.Equal(t, tt.status, res.Results[0].Status)
			if tt.errIs != nil {
				assert.Contains(t, res.Results[0].Error, tt.errIs.Error())
			}
		})
	}
}

func TestDispatcher_Run_FirstSendSingleChunk(t *testing.T) {
	store := newMemStore()
	user := store.addUser("5550100")
	sub := seedReady(t, store, user, models.CadenceDaily, models.DoNotRepeat, "only.")
	sender := &recordingSender{}
	d := newTestDispatcher(store, sender, newMemLocker())
	ctx := context.Background()

	_, err := d.Run(ctx, startTime.Add(-time.Hour), models.DispatchOptions{SubmissionID: &sub.ID})
	require.NoError(t, err)
	_, err = d.Run(ctx, startTime, models.DispatchOptions{})
	require.NoError(t, err)
	_, err = d.Run(ctx, startTime.Add(24*time.Hour), models.DispatchOptions{})
	require.NoError(t, err)

	// The immediate send does not count towards the lap.
	assert.Equal(t, []string{"only.", "only."}, sender.bodies())
}
