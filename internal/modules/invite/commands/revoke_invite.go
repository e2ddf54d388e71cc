package commands

import (
	"context"
	"errors"
	"net/http"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	sessiondomain "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
)

type RevokeInviteCommand struct {
	InviteID uuid.UUID
	UserID   uuid.UUID
}

func (c RevokeInviteCommand) Validate() error {
	return core.Validate(
		validateID("InviteID", c.InviteID),
		validateID("UserID", c.UserID),
	)
}

func HandleRevokeInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command := RevokeInviteCommand{
		InviteID: core.URLParamID(r, "id"),
		UserID:   core.Session(ctx).UserID,
	}

	if _, err := mediator.Send[RevokeInviteCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteNoContent(w, r)
}

type RevokeInviteCommandHandler struct {
	invites  InviteStore
	sessions SessionFinder
}

func NewRevokeInviteCommandHandler(invites InviteStore, sessions SessionFinder) *RevokeInviteCommandHandler {
	return &RevokeInviteCommandHandler{
		invites:  invites,
		sessions: sessions,
	}
}

func (h *RevokeInviteCommandHandler) Handle(
	ctx context.Context,
	request RevokeInviteCommand,
) (core.Unit, error) {
	invite, err := loadInvite(ctx, h.invites, request.InviteID)
	if err != nil {
		return core.Unit{}, err
	}

	onlyOwner := core.NewCommandError(core.CodeOnlyOwnerCanRevoke, "only the session owner can revoke invites")

	session, err := h.sessions.FindSession(ctx, invite.SessionID)
	switch {
	case errors.Is(err, sessiondomain.ErrSessionNotFound):
		return core.Unit{}, onlyOwner
	case err != nil:
		return core.Unit{}, core.NewInternalError(err)
	case session.OwnerUserID != request.UserID:
		return core.Unit{}, onlyOwner
	}

	if !invite.Pending() {
		return core.Unit{}, inviteNotPending(invite.ID)
	}

	if err := h.invites.RevokeInvite(ctx, invite.ID, request.UserID); err != nil {
		return core.Unit{}, translateTransitionError(invite, err)
	}

	return core.Unit{}, nil
}
