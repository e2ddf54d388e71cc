package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var ErrCoordinatorNotInitialized = errors.New("realtime coordinator used before initialization")

// closedRetention bounds how long a closed session id is remembered. It
// only has to outlast an active-session lookup racing with the close.
const closedRetention = 5 * time.Minute

// ActiveSessionFinder resolves the session a user currently takes part in.
type ActiveSessionFinder interface {
	FindActiveSessionID(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error)
}

// Coordinator owns the user to connection registry and session rooms and
// is the only component that writes events to connections. Emission is
// best-effort: failures are logged and counted, never returned.
type Coordinator struct {
	logger *zap.Logger
	finder ActiveSessionFinder
	clock  clockwork.Clock

	mu          sync.RWMutex
	connections map[uuid.UUID]map[string]*Connection
	rooms       map[uuid.UUID]map[string]*Connection
	closed      map[uuid.UUID]time.Time
}

func NewCoordinator(logger *zap.Logger, finder ActiveSessionFinder, clk clockwork.Clock) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}

	if clk == nil {
		clk = clockwork.NewRealClock()
	}

	return &Coordinator{
		logger:      logger,
		finder:      finder,
		clock:       clk,
		connections: make(map[uuid.UUID]map[string]*Connection),
		rooms:       make(map[uuid.UUID]map[string]*Connection),
		closed:      make(map[uuid.UUID]time.Time),
	}
}

func (c *Coordinator) ready() {
	if c == nil || c.connections == nil {
		panic(ErrCoordinatorNotInitialized)
	}
}

func (c *Coordinator) Register(conn *Connection) {
	c.ready()

	c.mu.Lock()
	defer c.mu.Unlock()

	userConnections, ok := c.connections[conn.userID]
	if !ok {
		userConnections = make(map[string]*Connection)
		c.connections[conn.userID] = userConnections
	}

	if _, exists := userConnections[conn.id]; !exists {
		userConnections[conn.id] = conn
		wsConnections.Inc()
	}
}

// Unregister removes conn from the registry and from its room. Users with
// no connections left are dropped from the registry.
func (c *Coordinator) Unregister(conn *Connection) bool {
	c.ready()

	c.mu.Lock()
	defer c.mu.Unlock()

	userConnections, ok := c.connections[conn.userID]
	if !ok {
		return false
	}

	if _, exists := userConnections[conn.id]; !exists {
		return false
	}

	delete(userConnections, conn.id)
	if len(userConnections) == 0 {
		delete(c.connections, conn.userID)
	}

	c.leaveRoomLocked(conn)
	wsConnections.Dec()

	return true
}

func (c *Coordinator) ConnectionsFor(userID uuid.UUID) []string {
	c.ready()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.connections[userID]))
	for id := range c.connections[userID] {
		ids = append(ids, id)
	}

	return ids
}

// Connect registers conn and resumes the user's active session on it, if
// any. A session closed while the lookup ran is not resumed. Resume
// failures are logged; the connected acknowledgment is sent regardless.
func (c *Coordinator) Connect(ctx context.Context, conn *Connection) {
	c.ready()

	c.Register(conn)

	if c.finder != nil {
		sessionID, found, err := c.finder.FindActiveSessionID(ctx, conn.userID)
		switch {
		case err != nil:
			c.logger.Warn(
				"failed to resume active session",
				zap.Stringer("user_id", conn.userID),
				zap.String("connection_id", conn.id),
				zap.Error(err),
			)
		case found:
			c.mu.Lock()
			c.joinRoomLocked(conn, sessionID)
			c.mu.Unlock()

			c.EmitToConnection(conn, EventSessionResumed, SessionResumedPayload{
				SessionID: sessionID,
				Timestamp: c.clock.Now().UTC(),
			})
		}
	}

	c.EmitToConnection(conn, EventConnected, ConnectionPayload{
		ConnectionID: conn.id,
		UserID:       conn.userID,
	})
}

// Disconnect unregisters conn, queues the disconnected notification and
// closes its outbox.
func (c *Coordinator) Disconnect(conn *Connection) {
	c.ready()

	c.Unregister(conn)

	c.EmitToConnection(conn, EventDisconnected, ConnectionPayload{
		ConnectionID: conn.id,
		UserID:       conn.userID,
	})

	conn.close()
}

// JoinSession moves every connection of userID into the session's room and
// returns how many were moved. Closed sessions cannot be joined.
func (c *Coordinator) JoinSession(userID uuid.UUID, sessionID uuid.UUID) int {
	c.ready()

	c.mu.Lock()
	defer c.mu.Unlock()

	joined := 0
	for _, conn := range c.connections[userID] {
		if c.joinRoomLocked(conn, sessionID) {
			joined++
		}
	}

	return joined
}

// LeaveSession removes the user's connections tagged with sessionID from
// its room and clears their tag.
func (c *Coordinator) LeaveSession(userID uuid.UUID, sessionID uuid.UUID) int {
	c.ready()

	c.mu.Lock()
	defer c.mu.Unlock()

	left := 0
	for _, conn := range c.connections[userID] {
		if current, _ := conn.SessionID(); current == sessionID {
			c.leaveRoomLocked(conn)
			left++
		}
	}

	return left
}

// CloseSession empties the session's room and marks it closed so later
// joins are refused.
func (c *Coordinator) CloseSession(sessionID uuid.UUID) int {
	c.ready()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for id, at := range c.closed {
		if now.Sub(at) > closedRetention {
			delete(c.closed, id)
		}
	}
	c.closed[sessionID] = now

	room := c.rooms[sessionID]
	for _, conn := range room {
		conn.setSession(uuid.Nil)
	}
	delete(c.rooms, sessionID)

	return len(room)
}

// InSession reports whether any connection of userID is tagged with sessionID.
func (c *Coordinator) InSession(userID uuid.UUID, sessionID uuid.UUID) bool {
	c.ready()

	if sessionID == uuid.Nil {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, conn := range c.connections[userID] {
		if current, _ := conn.SessionID(); current == sessionID {
			return true
		}
	}

	return false
}

func (c *Coordinator) RoomSize(sessionID uuid.UUID) int {
	c.ready()

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.rooms[sessionID])
}

// EmitToSession returns the number of connections the event was queued to.
func (c *Coordinator) EmitToSession(sessionID uuid.UUID, event Event, payload interface{}) int {
	c.ready()

	c.mu.RLock()
	targets := make([]*Connection, 0, len(c.rooms[sessionID]))
	for _, conn := range c.rooms[sessionID] {
		targets = append(targets, conn)
	}
	c.mu.RUnlock()

	return c.emit(targets, event, payload)
}

func (c *Coordinator) Broadcast(event Event, payload interface{}) int {
	c.ready()

	c.mu.RLock()
	var targets []*Connection
	for _, userConnections := range c.connections {
		for _, conn := range userConnections {
			targets = append(targets, conn)
		}
	}
	c.mu.RUnlock()

	return c.emit(targets, event, payload)
}

func (c *Coordinator) EmitToConnection(conn *Connection, event Event, payload interface{}) bool {
	c.ready()

	return c.emit([]*Connection{conn}, event, payload) == 1
}

func (c *Coordinator) emit(targets []*Connection, event Event, payload interface{}) int {
	if len(targets) == 0 {
		return 0
	}

	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		c.logger.Error("failed to encode realtime event", zap.String("event", string(event)), zap.Error(err))
		return 0
	}

	delivered := 0
	for _, conn := range targets {
		if conn.enqueue(frame) {
			delivered++
			continue
		}

		droppedTotal.Inc()
		c.logger.Debug(
			"dropped realtime event",
			zap.String("event", string(event)),
			zap.String("connection_id", conn.id),
			zap.Stringer("user_id", conn.userID),
		)
	}

	eventsTotal.WithLabelValues(string(event)).Add(float64(delivered))

	return delivered
}

func (c *Coordinator) joinRoomLocked(conn *Connection, sessionID uuid.UUID) bool {
	if _, closed := c.closed[sessionID]; closed {
		return false
	}

	c.leaveRoomLocked(conn)

	room, ok := c.rooms[sessionID]
	if !ok {
		room = make(map[string]*Connection)
		c.rooms[sessionID] = room
	}

	room[conn.id] = conn
	conn.setSession(sessionID)

	return true
}

func (c *Coordinator) leaveRoomLocked(conn *Connection) {
	current, ok := conn.SessionID()
	if !ok {
		return
	}

	if room, exists := c.rooms[current]; exists {
		delete(room, conn.id)
		if len(room) == 0 {
			delete(c.rooms, current)
		}
	}

	conn.setSession(uuid.Nil)
}
