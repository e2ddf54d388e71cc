package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFriendRequestNotFound   = errors.New("friend request not found")
	ErrFriendRequestNotPending = errors.New("friend request is no longer pending")
	ErrAlreadyFriends          = errors.New("users are already friends")
	ErrDuplicatePendingRequest = errors.New("a pending friend request already exists between these users")
)

type FriendRequest struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	FromUserID uuid.UUID  `db:"from_user_id" json:"fromUserId"`
	ToUserID   uuid.UUID  `db:"to_user_id" json:"toUserId"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	AcceptedAt *time.Time `db:"accepted_at" json:"acceptedAt,omitempty"`
	DeclinedAt *time.Time `db:"declined_at" json:"declinedAt,omitempty"`
}

func (r FriendRequest) Pending() bool {
	return r.AcceptedAt == nil && r.DeclinedAt == nil
}

// Friend is one direction of a friendship; both directions always exist.
type Friend struct {
	UserID       uuid.UUID `db:"user_id" json:"userId"`
	FriendUserID uuid.UUID `db:"friend_user_id" json:"friendUserId"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
