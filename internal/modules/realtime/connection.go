package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Connection is the registry's view of one realtime socket. The session
// tag only changes through the Coordinator (join, leave, close, resume).
type Connection struct {
	id     string
	userID uuid.UUID

	mu        sync.Mutex
	sessionID uuid.UUID
	closed    bool

	send chan []byte
}

func NewConnection(userID uuid.UUID, buffer int) *Connection {
	if buffer <= 0 {
		buffer = 1
	}

	return &Connection{
		id:     uuid.NewString(),
		userID: userID,
		send:   make(chan []byte, buffer),
	}
}

func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) UserID() uuid.UUID {
	return c.userID
}

// SessionID returns the session the connection is currently routed to.
func (c *Connection) SessionID() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID, c.sessionID != uuid.Nil
}

// Outbox yields queued frames and is closed once the connection is.
func (c *Connection) Outbox() <-chan []byte {
	return c.send
}

func (c *Connection) setSession(sessionID uuid.UUID) {
	c.mu.Lock()
	c.sessionID = sessionID
	c.mu.Unlock()
}

// enqueue never blocks. Frames for a full or closed connection are dropped.
func (c *Connection) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
