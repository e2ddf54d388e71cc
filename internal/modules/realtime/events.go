package realtime

import (
	"time"

	"github.com/google/uuid"
)

type Event string

const (
	EventConnected      Event = "connected"
	EventDisconnected   Event = "disconnected"
	EventSessionStarted Event = "session_started"
	EventSessionEnded   Event = "session_ended"
	EventSessionResumed Event = "session_resumed"
	EventUserJoined     Event = "user_joined"
	EventUserLeft       Event = "user_left"
	EventUserOnline     Event = "user_online"
	EventUserOffline    Event = "user_offline"
	EventLocationUpdate Event = "location_update"
)

// Envelope is the outbound text frame.
type Envelope struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data"`
}

type ConnectionPayload struct {
	ConnectionID string    `json:"connection_id"`
	UserID       uuid.UUID `json:"user_id"`
}

type SessionResumedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

type SessionStartedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	OwnerID   uuid.UUID `json:"owner_user_id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type SessionEndedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

type UserJoinedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

type UserLeftPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

type PresencePayload struct {
	UserID    uuid.UUID  `json:"user_id"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

type LocationUpdatePayload struct {
	UserID    uuid.UUID `json:"user_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// LocationSample is a single position report from a client.
type LocationSample struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
}

type InboundType string

const (
	InboundLocationUpdate InboundType = "location_update"
	InboundHeartbeat      InboundType = "heartbeat"
)

type InboundMessage struct {
	Type InboundType `json:"type"`
	LocationSample
}
