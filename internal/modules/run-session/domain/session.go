package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionAlreadyEnded = errors.New("session already ended")
)

type SessionType string

const (
	SessionTypePublic  SessionType = "public"
	SessionTypePrivate SessionType = "private"
)

func (t SessionType) Valid() bool {
	return t == SessionTypePublic || t == SessionTypePrivate
}

type EndReason string

const (
	EndReasonCompleted  EndReason = "completed"
	EndReasonCancelled  EndReason = "cancelled"
	EndReasonTimeout    EndReason = "timeout"
	EndReasonReplaced   EndReason = "replaced"
	EndReasonDisconnect EndReason = "disconnect"
)

func (r EndReason) Valid() bool {
	switch r {
	case EndReasonCompleted, EndReasonCancelled, EndReasonTimeout, EndReasonReplaced, EndReasonDisconnect:
		return true
	default:
		return false
	}
}

// ClientSelectable reports whether a caller may stop a session with r.
// Replacement is only ever applied by starting a new session.
func (r EndReason) ClientSelectable() bool {
	return r.Valid() && r != EndReasonReplaced
}

type Role string

const (
	RoleOwner   Role = "owner"
	RoleInvited Role = "invited"
)

type Session struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	OwnerUserID uuid.UUID   `db:"owner_user_id" json:"ownerUserId"`
	Type        SessionType `db:"type" json:"type"`
	StartedAt   time.Time   `db:"started_at" json:"startedAt"`
	EndedAt     *time.Time  `db:"ended_at" json:"endedAt"`
	EndedReason *EndReason  `db:"ended_reason" json:"endedReason"`
}

func (s Session) Active() bool {
	return s.EndedAt == nil
}

type Participant struct {
	SessionID uuid.UUID  `db:"session_id" json:"sessionId"`
	UserID    uuid.UUID  `db:"user_id" json:"userId"`
	Role      Role       `db:"role" json:"role"`
	JoinedAt  time.Time  `db:"joined_at" json:"joinedAt"`
	LeftAt    *time.Time `db:"left_at" json:"leftAt"`
}
