package commands

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type participantKey struct {
	sessionID uuid.UUID
	userID    uuid.UUID
}

// memorySessionStore applies the same guards as the Postgres store.
type memorySessionStore struct {
	mu           sync.Mutex
	now          time.Time
	sessions     map[uuid.UUID]domain.Session
	participants map[participantKey]domain.Participant
	err          error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{
		now:          time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
		sessions:     make(map[uuid.UUID]domain.Session),
		participants: make(map[participantKey]domain.Participant),
	}
}

func (s *memorySessionStore) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *memorySessionStore) ReplaceActiveSession(
	_ context.Context,
	ownerID uuid.UUID,
	sessionType domain.SessionType,
) (domain.Session, *domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return domain.Session{}, nil, s.err
	}

	var replaced *domain.Session
	for id, session := range s.sessions {
		if session.OwnerUserID == ownerID && session.Active() {
			s.endLocked(&session, domain.EndReasonReplaced)
			s.sessions[id] = session
			replaced = &session
		}
	}

	now := s.tick()
	created := domain.Session{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		Type:        sessionType,
		StartedAt:   now,
	}
	s.sessions[created.ID] = created
	s.participants[participantKey{created.ID, ownerID}] = domain.Participant{
		SessionID: created.ID,
		UserID:    ownerID,
		Role:      domain.RoleOwner,
		JoinedAt:  now,
	}

	return created, replaced, nil
}

func (s *memorySessionStore) FindSession(_ context.Context, sessionID uuid.UUID) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return domain.Session{}, s.err
	}

	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	return session, nil
}

func (s *memorySessionStore) EndSession(
	_ context.Context,
	sessionID uuid.UUID,
	ownerID uuid.UUID,
	reason domain.EndReason,
) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.OwnerUserID != ownerID || !session.Active() {
		return domain.Session{}, domain.ErrSessionAlreadyEnded
	}

	s.endLocked(&session, reason)
	s.sessions[sessionID] = session

	return session, nil
}

func (s *memorySessionStore) endLocked(session *domain.Session, reason domain.EndReason) {
	endedAt := s.tick()
	session.EndedAt = &endedAt
	session.EndedReason = &reason

	key := participantKey{session.ID, session.OwnerUserID}
	if participant, ok := s.participants[key]; ok && participant.LeftAt == nil {
		participant.LeftAt = &endedAt
		s.participants[key] = participant
	}
}

func (s *memorySessionStore) activeFor(ownerID uuid.UUID) []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []domain.Session
	for _, session := range s.sessions {
		if session.OwnerUserID == ownerID && session.Active() {
			active = append(active, session)
		}
	}
	return active
}

func (s *memorySessionStore) participant(sessionID, userID uuid.UUID) domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participants[participantKey{sessionID, userID}]
}

type recordingState struct {
	mu      sync.Mutex
	cleared []uuid.UUID
	err     error
}

func (s *recordingState) Clear(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = append(s.cleared, userID)
	return s.err
}

type frame struct {
	Event realtime.Event  `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newCoordinator() *realtime.Coordinator {
	return realtime.NewCoordinator(zap.NewNop(), nil, clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func connect(c *realtime.Coordinator, userID uuid.UUID) *realtime.Connection {
	conn := realtime.NewConnection(userID, 32)
	c.Register(conn)
	return conn
}

func drain(t *testing.T, conn *realtime.Connection) []frame {
	t.Helper()

	var frames []frame
	for {
		select {
		case raw, ok := <-conn.Outbox():
			if !ok {
				return frames
			}
			var f frame
			require.NoError(t, json.Unmarshal(raw, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func eventNames(frames []frame) []realtime.Event {
	names := make([]realtime.Event, 0, len(frames))
	for _, f := range frames {
		names = append(names, f.Event)
	}
	return names
}
