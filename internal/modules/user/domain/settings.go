package domain

import (
	"errors"

	"github.com/google/uuid"
)

var ErrSettingsNotFound = errors.New("user settings not found")

type InvitePermission string

const (
	InvitePermissionAnyone  InvitePermission = "anyone"
	InvitePermissionFriends InvitePermission = "friends"
	InvitePermissionNone    InvitePermission = "none"
)

type Settings struct {
	UserID            uuid.UUID        `db:"user_id" json:"userId"`
	InvitePermissions InvitePermission `db:"invite_permissions" json:"invitePermissions"`
}

// AllowsInviteFrom decides whether an invite may be delivered, given
// whether sender and recipient are friends.
func (s Settings) AllowsInviteFrom(areFriends bool) bool {
	switch s.InvitePermissions {
	case InvitePermissionAnyone:
		return true
	case InvitePermissionFriends:
		return areFriends
	default:
		return false
	}
}
