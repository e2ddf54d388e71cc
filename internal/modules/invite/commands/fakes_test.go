package commands

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/invite/domain"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"
	sessiondomain "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"
	userdomain "github.com/eskrenkovic/run-sessions-go/internal/modules/user/domain"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var epoch = time.Date(2026, 4, 12, 6, 0, 0, 0, time.UTC)

// memoryStore backs every dependency of the invite handlers and applies the
// same pending guard as the Postgres store.
type memoryStore struct {
	mu           sync.Mutex
	invites      map[uuid.UUID]domain.Invite
	sessions     map[uuid.UUID]sessiondomain.Session
	settings     map[uuid.UUID]userdomain.Settings
	friends      map[[2]uuid.UUID]bool
	participants map[[2]uuid.UUID]sessiondomain.Role
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		invites:      make(map[uuid.UUID]domain.Invite),
		sessions:     make(map[uuid.UUID]sessiondomain.Session),
		settings:     make(map[uuid.UUID]userdomain.Settings),
		friends:      make(map[[2]uuid.UUID]bool),
		participants: make(map[[2]uuid.UUID]sessiondomain.Role),
	}
}

func (s *memoryStore) addSession(ownerID uuid.UUID) sessiondomain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := sessiondomain.Session{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		Type:        sessiondomain.SessionTypePrivate,
		StartedAt:   epoch,
	}
	s.sessions[session.ID] = session

	return session
}

func (s *memoryStore) endSession(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.sessions[sessionID]
	endedAt := epoch.Add(time.Hour)
	reason := sessiondomain.EndReasonCompleted
	session.EndedAt = &endedAt
	session.EndedReason = &reason
	s.sessions[sessionID] = session
}

func (s *memoryStore) setPermission(userID uuid.UUID, permission userdomain.InvitePermission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[userID] = userdomain.Settings{UserID: userID, InvitePermissions: permission}
}

func (s *memoryStore) befriend(a, b uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends[[2]uuid.UUID{a, b}] = true
	s.friends[[2]uuid.UUID{b, a}] = true
}

func (s *memoryStore) invite(inviteID uuid.UUID) domain.Invite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invites[inviteID]
}

func (s *memoryStore) role(sessionID, userID uuid.UUID) (sessiondomain.Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.participants[[2]uuid.UUID{sessionID, userID}]
	return role, ok
}

func (s *memoryStore) FindSession(_ context.Context, sessionID uuid.UUID) (sessiondomain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return sessiondomain.Session{}, sessiondomain.ErrSessionNotFound
	}

	return session, nil
}

func (s *memoryStore) FindSettings(_ context.Context, userID uuid.UUID) (userdomain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, ok := s.settings[userID]
	if !ok {
		return userdomain.Settings{}, userdomain.ErrSettingsNotFound
	}

	return settings, nil
}

func (s *memoryStore) AreFriends(_ context.Context, userID, otherUserID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.friends[[2]uuid.UUID{userID, otherUserID}], nil
}

func (s *memoryStore) CreateInvite(
	_ context.Context,
	fromUserID uuid.UUID,
	toUserID uuid.UUID,
	sessionID uuid.UUID,
	sessionType sessiondomain.SessionType,
) (domain.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invite := domain.Invite{
		ID:          uuid.New(),
		FromUserID:  fromUserID,
		ToUserID:    toUserID,
		SessionID:   sessionID,
		SessionType: sessionType,
		CreatedAt:   epoch,
	}
	s.invites[invite.ID] = invite

	return invite, nil
}

func (s *memoryStore) FindInvite(_ context.Context, inviteID uuid.UUID) (domain.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invite, ok := s.invites[inviteID]
	if !ok {
		return domain.Invite{}, domain.ErrInviteNotFound
	}

	return invite, nil
}

func (s *memoryStore) AcceptInvite(_ context.Context, inviteID, userID uuid.UUID) (domain.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invite, ok := s.invites[inviteID]
	if !ok || invite.ToUserID != userID || !invite.Pending() {
		return domain.Invite{}, domain.ErrInviteNotPending
	}

	if session, ok := s.sessions[invite.SessionID]; !ok || !session.Active() {
		return domain.Invite{}, domain.ErrSessionNoLongerActive
	}

	acceptedAt := epoch.Add(time.Minute)
	invite.AcceptedAt = &acceptedAt
	s.invites[inviteID] = invite

	key := [2]uuid.UUID{invite.SessionID, userID}
	if _, exists := s.participants[key]; !exists {
		s.participants[key] = sessiondomain.RoleInvited
	}

	return invite, nil
}

func (s *memoryStore) DeclineInvite(_ context.Context, inviteID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	invite, ok := s.invites[inviteID]
	if !ok || invite.ToUserID != userID || !invite.Pending() {
		return domain.ErrInviteNotPending
	}

	declinedAt := epoch.Add(time.Minute)
	invite.DeclinedAt = &declinedAt
	s.invites[inviteID] = invite

	return nil
}

func (s *memoryStore) RevokeInvite(_ context.Context, inviteID, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	invite, ok := s.invites[inviteID]
	if !ok || s.sessions[invite.SessionID].OwnerUserID != ownerID || !invite.Pending() {
		return domain.ErrInviteNotPending
	}

	revokedAt := epoch.Add(time.Minute)
	invite.RevokedAt = &revokedAt
	s.invites[inviteID] = invite

	return nil
}

// fixture is an owner with an active session and a recipient who accepts
// invites from anyone.
type fixture struct {
	store       *memoryStore
	coordinator *realtime.Coordinator
	ownerID     uuid.UUID
	guestID     uuid.UUID
	session     sessiondomain.Session
}

func newFixture() fixture {
	store := newMemoryStore()
	ownerID, guestID := uuid.New(), uuid.New()
	store.setPermission(guestID, userdomain.InvitePermissionAnyone)

	return fixture{
		store:       store,
		coordinator: realtime.NewCoordinator(zap.NewNop(), nil, clockwork.NewFakeClockAt(epoch)),
		ownerID:     ownerID,
		guestID:     guestID,
		session:     store.addSession(ownerID),
	}
}

func (f fixture) sendInvite(t *testing.T) domain.Invite {
	t.Helper()

	invite, err := NewSendInviteCommandHandler(f.store, f.store, f.store, f.store).Handle(
		context.Background(),
		SendInviteCommand{FromUserID: f.ownerID, ToUserID: f.guestID, SessionID: f.session.ID},
	)
	require.NoError(t, err)

	return invite
}

type frame struct {
	Event realtime.Event  `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func drain(t *testing.T, conn *realtime.Connection) []frame {
	t.Helper()

	var frames []frame
	for {
		select {
		case raw := <-conn.Outbox():
			var f frame
			require.NoError(t, json.Unmarshal(raw, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}
