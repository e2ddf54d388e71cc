package commands

import (
	"context"
	"net/http"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
)

type DeclineInviteCommand struct {
	InviteID uuid.UUID
	UserID   uuid.UUID
}

func (c DeclineInviteCommand) Validate() error {
	return core.Validate(
		validateID("InviteID", c.InviteID),
		validateID("UserID", c.UserID),
	)
}

func HandleDeclineInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command := DeclineInviteCommand{
		InviteID: core.URLParamID(r, "id"),
		UserID:   core.Session(ctx).UserID,
	}

	if _, err := mediator.Send[DeclineInviteCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteNoContent(w, r)
}

type DeclineInviteCommandHandler struct {
	invites InviteStore
}

func NewDeclineInviteCommandHandler(invites InviteStore) *DeclineInviteCommandHandler {
	return &DeclineInviteCommandHandler{invites}
}

func (h *DeclineInviteCommandHandler) Handle(
	ctx context.Context,
	request DeclineInviteCommand,
) (core.Unit, error) {
	invite, err := loadInvite(ctx, h.invites, request.InviteID)
	if err != nil {
		return core.Unit{}, err
	}

	if invite.ToUserID != request.UserID {
		return core.Unit{}, core.NewCommandError(core.CodeNotYourInvite, "invite was sent to another user")
	}

	if !invite.Pending() {
		return core.Unit{}, inviteNotPending(invite.ID)
	}

	if err := h.invites.DeclineInvite(ctx, invite.ID, request.UserID); err != nil {
		return core.Unit{}, translateTransitionError(invite, err)
	}

	return core.Unit{}, nil
}
