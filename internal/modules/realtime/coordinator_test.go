package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFinder struct {
	sessionID uuid.UUID
	found     bool
	err       error
}

func (f fakeFinder) FindActiveSessionID(context.Context, uuid.UUID) (uuid.UUID, bool, error) {
	return f.sessionID, f.found, f.err
}

// closingFinder ends the session while the lookup is in flight, the way a
// concurrent stop or replace would.
type closingFinder struct {
	coordinator *Coordinator
	sessionID   uuid.UUID
}

func (f *closingFinder) FindActiveSessionID(context.Context, uuid.UUID) (uuid.UUID, bool, error) {
	f.coordinator.CloseSession(f.sessionID)
	return f.sessionID, true, nil
}

func newTestCoordinator(finder ActiveSessionFinder) *Coordinator {
	return NewCoordinator(zap.NewNop(), finder, clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

type receivedFrame struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func drain(t *testing.T, conn *Connection) []receivedFrame {
	t.Helper()

	var frames []receivedFrame
	for {
		select {
		case raw, ok := <-conn.Outbox():
			if !ok {
				return frames
			}
			var frame receivedFrame
			require.NoError(t, json.Unmarshal(raw, &frame))
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

func events(frames []receivedFrame) []Event {
	result := make([]Event, 0, len(frames))
	for _, f := range frames {
		result = append(result, f.Event)
	}
	return result
}

func Test_Coordinator_Unregister_Removes_Empty_Entries(t *testing.T) {
	// Arrange
	c := newTestCoordinator(nil)
	userID := uuid.New()
	first := NewConnection(userID, 8)
	second := NewConnection(userID, 8)

	c.Register(first)
	c.Register(second)

	// Act
	require.True(t, c.Unregister(first))
	remaining := c.ConnectionsFor(userID)
	require.True(t, c.Unregister(second))

	// Assert
	require.Equal(t, []string{second.ID()}, remaining)
	require.Empty(t, c.ConnectionsFor(userID))
	require.False(t, c.Unregister(second))
	require.NotContains(t, c.connections, userID)
}

func Test_Coordinator_Connect_Resumes_Active_Session(t *testing.T) {
	// Arrange
	sessionID := uuid.New()
	c := newTestCoordinator(fakeFinder{sessionID: sessionID, found: true})
	conn := NewConnection(uuid.New(), 8)

	// Act
	c.Connect(context.Background(), conn)

	// Assert
	tag, ok := conn.SessionID()
	require.True(t, ok)
	require.Equal(t, sessionID, tag)
	require.Equal(t, 1, c.RoomSize(sessionID))
	require.Equal(t, []Event{EventSessionResumed, EventConnected}, events(drain(t, conn)))
}

func Test_Coordinator_Connect_Acknowledges_When_Resume_Fails(t *testing.T) {
	// Arrange
	c := newTestCoordinator(fakeFinder{err: errors.New("database unavailable")})
	conn := NewConnection(uuid.New(), 8)

	// Act
	c.Connect(context.Background(), conn)

	// Assert
	_, ok := conn.SessionID()
	require.False(t, ok)
	require.Equal(t, []Event{EventConnected}, events(drain(t, conn)))
	require.Len(t, c.ConnectionsFor(conn.UserID()), 1)
}

func Test_Coordinator_Disconnect_Queues_Notification_Then_Closes(t *testing.T) {
	// Arrange
	c := newTestCoordinator(nil)
	conn := NewConnection(uuid.New(), 8)
	c.Connect(context.Background(), conn)
	drain(t, conn)

	// Act
	c.Disconnect(conn)

	// Assert
	require.Equal(t, []Event{EventDisconnected}, events(drain(t, conn)))
	_, open := <-conn.Outbox()
	require.False(t, open)
	require.False(t, c.EmitToConnection(conn, EventConnected, nil))
}

func Test_Coordinator_JoinSession_Moves_All_User_Connections(t *testing.T) {
	// Arrange
	c := newTestCoordinator(nil)
	userID := uuid.New()
	oldSession, newSession := uuid.New(), uuid.New()
	first, second := NewConnection(userID, 8), NewConnection(userID, 8)
	c.Register(first)
	c.Register(second)
	c.JoinSession(userID, oldSession)

	// Act
	joined := c.JoinSession(userID, newSession)

	// Assert
	require.Equal(t, 2, joined)
	require.Equal(t, 0, c.RoomSize(oldSession))
	require.Equal(t, 2, c.RoomSize(newSession))
	require.True(t, c.InSession(userID, newSession))
	require.False(t, c.InSession(userID, oldSession))
}

func Test_Coordinator_EmitToSession_Reaches_Only_Room_Members(t *testing.T) {
	// Arrange
	c := newTestCoordinator(nil)
	sessionID := uuid.New()
	member := NewConnection(uuid.New(), 8)
	outsider := NewConnection(uuid.New(), 8)
	c.Register(member)
	c.Register(outsider)
	c.JoinSession(member.UserID(), sessionID)

	// Act
	delivered := c.EmitToSession(sessionID, EventUserJoined, UserJoinedPayload{SessionID: sessionID, Role: "invited"})

	// Assert
	require.Equal(t, 1, delivered)
	require.Equal(t, []Event{EventUserJoined}, events(drain(t, member)))
	require.Empty(t, drain(t, outsider))
}

func Test_Coordinator_Broadcast_Reaches_Everyone(t *testing.T) {
	// Arrange
	c := newTestCoordinator(nil)
	first, second := NewConnection(uuid.New(), 8), NewConnection(uuid.New(), 8)
	c.Register(first)
	c.Register(second)

	// Act
	delivered := c.Broadcast(EventUserOnline, PresencePayload{UserID: first.UserID()})

	// Assert
	require.Equal(t, 2, delivered)
	require.Equal(t, []Event{EventUserOnline}, events(drain(t, first)))
	require.Equal(t, []Event{EventUserOnline}, events(drain(t, second)))
}

func Test_Coordinator_CloseSession_Clears_Tags(t *testing.T) {
	// Arrange
	c := newTestCoordinator(nil)
	sessionID := uuid.New()
	owner, guest := NewConnection(uuid.New(), 8), NewConnection(uuid.New(), 8)
	c.Register(owner)
	c.Register(guest)
	c.JoinSession(owner.UserID(), sessionID)
	c.JoinSession(guest.UserID(), sessionID)

	// Act
	removed := c.CloseSession(sessionID)

	// Assert
	require.Equal(t, 2, removed)
	require.Equal(t, 0, c.RoomSize(sessionID))
	require.False(t, c.InSession(owner.UserID(), sessionID))
	require.False(t, c.InSession(guest.UserID(), sessionID))
	require.Zero(t, c.EmitToSession(sessionID, EventSessionEnded, nil))
}

func Test_Coordinator_LeaveSession_Keeps_Other_Sessions(t *testing.T) {
	// Arrange
	c := newTestCoordinator(nil)
	userID := uuid.New()
	sessionID := uuid.New()
	conn := NewConnection(userID, 8)
	c.Register(conn)
	c.JoinSession(userID, sessionID)

	// Act
	untouched := c.LeaveSession(userID, uuid.New())
	left := c.LeaveSession(userID, sessionID)

	// Assert
	require.Zero(t, untouched)
	require.Equal(t, 1, left)
	require.False(t, c.InSession(userID, sessionID))
}

func Test_Coordinator_Drops_Frames_For_Full_Connections(t *testing.T) {
	// Arrange
	c := newTestCoordinator(nil)
	conn := NewConnection(uuid.New(), 1)
	c.Register(conn)

	// Act
	first := c.EmitToConnection(conn, EventUserOnline, nil)
	second := c.EmitToConnection(conn, EventUserOffline, nil)

	// Assert
	require.True(t, first)
	require.False(t, second)
	require.Equal(t, []Event{EventUserOnline}, events(drain(t, conn)))
}

func Test_Coordinator_Panics_When_Not_Initialized(t *testing.T) {
	var c *Coordinator

	require.PanicsWithValue(t, ErrCoordinatorNotInitialized, func() {
		c.Broadcast(EventUserOnline, nil)
	})
}

func Test_Coordinator_Connect_Does_Not_Resume_Session_Closed_During_Lookup(t *testing.T) {
	// Arrange
	sessionID := uuid.New()
	finder := &closingFinder{sessionID: sessionID}
	c := newTestCoordinator(finder)
	finder.coordinator = c
	conn := NewConnection(uuid.New(), 8)

	// Act
	c.Connect(context.Background(), conn)

	// Assert
	_, tagged := conn.SessionID()
	require.False(t, tagged)
	require.False(t, c.InSession(conn.UserID(), sessionID))
	require.Zero(t, c.RoomSize(sessionID))
	require.Equal(t, []Event{EventConnected}, events(drain(t, conn)))
}

func Test_Coordinator_JoinSession_Refuses_Closed_Session(t *testing.T) {
	// Arrange
	c := newTestCoordinator(nil)
	userID, sessionID := uuid.New(), uuid.New()
	conn := NewConnection(userID, 8)
	c.Register(conn)
	c.CloseSession(sessionID)

	// Act
	joined := c.JoinSession(userID, sessionID)

	// Assert
	require.Zero(t, joined)
	require.False(t, c.InSession(userID, sessionID))
	require.Zero(t, c.RoomSize(sessionID))
}

func Test_Coordinator_Concurrent_Membership_Changes_Stay_Consistent(t *testing.T) {
	// Arrange
	c := newTestCoordinator(nil)
	userID, sessionID := uuid.New(), uuid.New()

	const connectionCount = 32
	conns := make([]*Connection, connectionCount)
	for i := range conns {
		conns[i] = NewConnection(userID, 4)
	}

	start := make(chan struct{})
	var wg sync.WaitGroup

	// Act
	for i, conn := range conns {
		wg.Add(1)
		go func(i int, conn *Connection) {
			defer wg.Done()
			<-start

			c.Register(conn)
			c.JoinSession(userID, sessionID)
			c.EmitToSession(sessionID, EventUserJoined, nil)
			c.InSession(userID, sessionID)
			if i%2 == 0 {
				c.Unregister(conn)
			}
		}(i, conn)
	}
	close(start)
	wg.Wait()

	// Assert
	require.Len(t, c.ConnectionsFor(userID), connectionCount/2)
	require.Equal(t, connectionCount/2, c.JoinSession(userID, sessionID))
	require.Equal(t, connectionCount/2, c.RoomSize(sessionID))

	c.mu.RLock()
	defer c.mu.RUnlock()
	for id, room := range c.rooms {
		for _, conn := range room {
			tag, ok := conn.SessionID()
			require.True(t, ok)
			require.Equal(t, id, tag)
			require.Contains(t, c.connections[userID], conn.ID())
		}
	}
}
