package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/invite/domain"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"
	sessiondomain "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"
	userdomain "github.com/eskrenkovic/run-sessions-go/internal/modules/user/domain"

	"github.com/google/uuid"
)

type InviteStore interface {
	CreateInvite(
		ctx context.Context,
		fromUserID uuid.UUID,
		toUserID uuid.UUID,
		sessionID uuid.UUID,
		sessionType sessiondomain.SessionType,
	) (domain.Invite, error)
	FindInvite(ctx context.Context, inviteID uuid.UUID) (domain.Invite, error)
	AcceptInvite(ctx context.Context, inviteID uuid.UUID, userID uuid.UUID) (domain.Invite, error)
	DeclineInvite(ctx context.Context, inviteID uuid.UUID, userID uuid.UUID) error
	RevokeInvite(ctx context.Context, inviteID uuid.UUID, ownerID uuid.UUID) error
}

type SessionFinder interface {
	FindSession(ctx context.Context, sessionID uuid.UUID) (sessiondomain.Session, error)
}

type SettingsFinder interface {
	FindSettings(ctx context.Context, userID uuid.UUID) (userdomain.Settings, error)
}

type FriendshipChecker interface {
	AreFriends(ctx context.Context, userID uuid.UUID, otherUserID uuid.UUID) (bool, error)
}

type Realtime interface {
	JoinSession(userID uuid.UUID, sessionID uuid.UUID) int
	EmitToSession(sessionID uuid.UUID, event realtime.Event, payload interface{}) int
}

func validateID(name string, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("invalid %s - '%s'", name, id)
	}

	return nil
}

// loadInvite is the lookup every transition starts with.
func loadInvite(ctx context.Context, store InviteStore, inviteID uuid.UUID) (domain.Invite, error) {
	invite, err := store.FindInvite(ctx, inviteID)
	switch {
	case errors.Is(err, domain.ErrInviteNotFound):
		return domain.Invite{}, core.NewCommandError(
			core.CodeInviteNotFound,
			fmt.Sprintf("invite %s not found", inviteID),
		)
	case err != nil:
		return domain.Invite{}, core.NewInternalError(err)
	}

	return invite, nil
}

func inviteNotPending(inviteID uuid.UUID) error {
	return core.NewCommandError(
		core.CodeInviteNotPending,
		fmt.Sprintf("invite %s is no longer pending", inviteID),
	)
}

func sessionNoLongerActive(sessionID uuid.UUID) error {
	return core.NewCommandError(
		core.CodeSessionNoLongerActive,
		fmt.Sprintf("session %s is no longer active", sessionID),
	)
}

// translateTransitionError maps the errors a guarded store transition can
// return.
func translateTransitionError(invite domain.Invite, err error) error {
	switch {
	case errors.Is(err, domain.ErrInviteNotPending):
		return inviteNotPending(invite.ID)
	case errors.Is(err, domain.ErrSessionNoLongerActive):
		return sessionNoLongerActive(invite.SessionID)
	default:
		return core.NewInternalError(err)
	}
}
