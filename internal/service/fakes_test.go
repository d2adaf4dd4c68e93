package service_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/repository"
	"github.com/popeskul/cadence/internal/transport"
)

// memStore is an in-memory Repository with the same cursor semantics as the
// Postgres one, used to drive multi-run delivery scenarios.
type memStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*models.User
	submissions map[uuid.UUID]*models.Submission
	messages    map[uuid.UUID]*models.Message
	listErr     error
	// pending, when set, is returned by ListPending as a frozen snapshot.
	pending []*models.Submission
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[uuid.UUID]*models.User),
		submissions: make(map[uuid.UUID]*models.Submission),
		messages:    make(map[uuid.UUID]*models.Message),
	}
}

func (s *memStore) Ping(ctx context.Context) error { return nil }
func (s *memStore) Submission() repository.SubmissionRepository { return s }
func (s *memStore) Message() repository.MessageRepository { return memMessages{s} }
func (s *memStore) User() repository.UserRepository { return memUsers{s} }

func (s *memStore) ListPending(ctx context.Context, limit int) ([]*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return s.pending, nil
	}
	var out []*models.Submission
	for _, sub := range s.submissions {
		if !sub.MessageToSend.Valid && len(out) < limit {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) addUser(phone string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: uuid.New(), FirstName: "Ada", AreaCode: "1", PhoneNumber: phone, Timezone: "UTC"}
	s.users[u.ID] = u
	return u
}

func (s *memStore) Create(ctx context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sub
	s.submissions[sub.ID] = &cp
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, models.ErrNotFound)
	}
	cp := *sub
	return &cp, nil
}

func (s *memStore) candidate(sub *models.Submission) *models.DispatchCandidate {
	return &models.DispatchCandidate{Submission: *sub, Recipient: s.users[sub.UserID].Recipient()}
}

func (s *memStore) GetCandidate(ctx context.Context, id uuid.UUID) (*models.DispatchCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, models.ErrNotFound)
	}
	return s.candidate(sub), nil
}

func (s *memStore) ListDispatchable(ctx context.Context) ([]*models.DispatchCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*models.DispatchCandidate
	for _, sub := range s.submissions {
		if sub.MessageToSend.Valid {
			out = append(out, s.candidate(sub))
		}
	}
	return out, nil
}

func (s *memStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Submission, error) {
	return nil, errors.New("not implemented")
}

func (s *memStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return 0, errors.New("not implemented")
}

func (s *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submissions, id)
	return nil
}

func (s *memStore) AttachChain(ctx context.Context, submissionID uuid.UUID, messages []*models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return models.ErrNotFound
	}
	if sub.MessageToSend.Valid {
		return models.ErrAlreadyChunked
	}
	for _, m := range messages {
		cp := *m
		s.messages[m.ID] = &cp
	}
	head := uuid.NullUUID{UUID: messages[0].ID, Valid: true}
	sub.MessageToSend = head
	sub.FirstMessageID = head
	return nil
}

func (s *memStore) AdvanceCursor(ctx context.Context, p repository.AdvanceParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[p.SubmissionID]
	if !ok || sub.MessageToSend.UUID != p.SentMessageID {
		return fmt.Errorf("submission %s: %w", p.SubmissionID, models.ErrCursorConflict)
	}
	sub.MessageToSend = uuid.NullUUID{UUID: p.NextMessageID, Valid: true}
	if p.UpdateLastSent {
		sub.LastSentTime = sql.NullTime{Time: p.SentAt, Valid: true}
	}
	s.messages[p.SentMessageID].LastSentTime = sql.NullTime{Time: p.SentAt, Valid: true}
	return nil
}

func (s *memStore) cursor(id uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submissions[id].MessageToSend.UUID
}

type memMessages struct{ s *memStore }

func (m memMessages) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	msg, ok := m.s.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, models.ErrNotFound)
	}
	cp := *msg
	return &cp, nil
}

func (m memMessages) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]*models.Message, error) {
	return nil, errors.New("not implemented")
}

type memUsers struct{ s *memStore }

func (u memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return user, nil
}

func (u memUsers) Create(ctx context.Context, user *models.User) error {
	return errors.New("not implemented")
}

type sentSMS struct {
	to   string
	body string
}

// recordingSender delivers to an in-memory outbox; addresses in failFor are
// rejected by the provider and addresses in panicFor blow up the caller.
type recordingSender struct {
	mu       sync.Mutex
	outbox   []sentSMS
	failFor  map[string]bool
	panicFor map[string]bool
	delay    time.Duration
}

func (r *recordingSender) Send(ctx context.Context, to, body string) (*transport.SendResult, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicFor[to] {
		panic("nil provider response")
	}
	if r.failFor[to] {
		return nil, &transport.Error{StatusCode: 400, Message: "invalid number"}
	}
	r.outbox = append(r.outbox, sentSMS{to: to, body: body})
	return &transport.SendResult{ProviderID: fmt.Sprintf("SM%d", len(r.outbox))}, nil
}

func (r *recordingSender) bodies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.outbox))
	for i, s := range r.outbox {
		out[i] = s.body
	}
	return out
}

type memLocker struct {
	mu    sync.Mutex
	held  map[string]string
	calls int
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]string)}
}

func (l *memLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, true, nil
}

func (l *memLocker) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}
