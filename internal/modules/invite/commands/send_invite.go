package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/invite/domain"
	sessiondomain "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"
	userdomain "github.com/eskrenkovic/run-sessions-go/internal/modules/user/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
)

type SendInviteCommand struct {
	FromUserID uuid.UUID `json:"-"`
	ToUserID   uuid.UUID `json:"toUserId"`
	SessionID  uuid.UUID `json:"sessionId"`
}

func (c SendInviteCommand) Validate() error {
	var selfErr error
	if c.FromUserID != uuid.Nil && c.FromUserID == c.ToUserID {
		selfErr = errors.New("cannot invite yourself")
	}

	return core.Validate(
		validateID("FromUserID", c.FromUserID),
		validateID("ToUserID", c.ToUserID),
		validateID("SessionID", c.SessionID),
		selfErr,
	)
}

func HandleSendInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command, err := core.RequestBody[SendInviteCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.FromUserID = core.Session(ctx).UserID

	invite, err := mediator.Send[SendInviteCommand, domain.Invite](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteCreated(w, r, path.Join("/v1/invites", invite.ID.String()), invite)
}

type SendInviteCommandHandler struct {
	invites  InviteStore
	sessions SessionFinder
	settings SettingsFinder
	friends  FriendshipChecker
}

func NewSendInviteCommandHandler(
	invites InviteStore,
	sessions SessionFinder,
	settings SettingsFinder,
	friends FriendshipChecker,
) *SendInviteCommandHandler {
	return &SendInviteCommandHandler{
		invites:  invites,
		sessions: sessions,
		settings: settings,
		friends:  friends,
	}
}

func (h *SendInviteCommandHandler) Handle(
	ctx context.Context,
	request SendInviteCommand,
) (domain.Invite, error) {
	session, err := h.sessions.FindSession(ctx, request.SessionID)
	switch {
	case errors.Is(err, sessiondomain.ErrSessionNotFound):
		return domain.Invite{}, core.NewCommandError(
			core.CodeSessionNotFound,
			fmt.Sprintf("session %s not found", request.SessionID),
		)
	case err != nil:
		return domain.Invite{}, core.NewInternalError(err)
	}

	if session.OwnerUserID != request.FromUserID {
		return domain.Invite{}, core.NewCommandError(
			core.CodeOnlyOwnerCanInvite,
			"only the session owner can invite",
		)
	}

	settings, err := h.settings.FindSettings(ctx, request.ToUserID)
	switch {
	case errors.Is(err, userdomain.ErrSettingsNotFound):
		return domain.Invite{}, core.NewCommandError(
			core.CodeUserSettingsNotFound,
			fmt.Sprintf("settings for user %s not found", request.ToUserID),
		)
	case err != nil:
		return domain.Invite{}, core.NewInternalError(err)
	}

	areFriends := false
	if settings.InvitePermissions == userdomain.InvitePermissionFriends {
		areFriends, err = h.friends.AreFriends(ctx, request.FromUserID, request.ToUserID)
		if err != nil {
			return domain.Invite{}, core.NewInternalError(err)
		}
	}

	if !settings.AllowsInviteFrom(areFriends) {
		return domain.Invite{}, core.NewCommandError(
			core.CodeUserDisabledInvites,
			"user does not accept invites from you",
		)
	}

	invite, err := h.invites.CreateInvite(ctx, request.FromUserID, request.ToUserID, session.ID, session.Type)
	if err != nil {
		return domain.Invite{}, core.NewInternalError(err)
	}

	return invite, nil
}
