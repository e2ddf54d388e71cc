package domain

import (
	"errors"
	"time"

	sessiondomain "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"

	"github.com/google/uuid"
)

var (
	ErrInviteNotFound        = errors.New("invite not found")
	ErrInviteNotPending      = errors.New("invite is no longer pending")
	ErrSessionNoLongerActive = errors.New("session is no longer active")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusRevoked  Status = "revoked"
)

type Invite struct {
	ID          uuid.UUID                 `db:"id" json:"id"`
	FromUserID  uuid.UUID                 `db:"from_user_id" json:"fromUserId"`
	ToUserID    uuid.UUID                 `db:"to_user_id" json:"toUserId"`
	SessionID   uuid.UUID                 `db:"session_id" json:"sessionId"`
	SessionType sessiondomain.SessionType `db:"session_type" json:"sessionType"`
	CreatedAt   time.Time                 `db:"created_at" json:"createdAt"`
	AcceptedAt  *time.Time                `db:"accepted_at" json:"acceptedAt,omitempty"`
	DeclinedAt  *time.Time                `db:"declined_at" json:"declinedAt,omitempty"`
	RevokedAt   *time.Time                `db:"revoked_at" json:"revokedAt,omitempty"`
}

// Status derives the state from whichever terminal timestamp is set.
func (i Invite) Status() Status {
	switch {
	case i.AcceptedAt != nil:
		return StatusAccepted
	case i.DeclinedAt != nil:
		return StatusDeclined
	case i.RevokedAt != nil:
		return StatusRevoked
	default:
		return StatusPending
	}
}

func (i Invite) Pending() bool {
	return i.Status() == StatusPending
}
