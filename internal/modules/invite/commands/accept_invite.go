package commands

import (
	"context"
	"errors"
	"net/http"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"
	sessiondomain "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
)

type AcceptInviteCommand struct {
	InviteID uuid.UUID
	UserID   uuid.UUID
}

func (c AcceptInviteCommand) Validate() error {
	return core.Validate(
		validateID("InviteID", c.InviteID),
		validateID("UserID", c.UserID),
	)
}

func HandleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command := AcceptInviteCommand{
		InviteID: core.URLParamID(r, "id"),
		UserID:   core.Session(ctx).UserID,
	}

	if _, err := mediator.Send[AcceptInviteCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteNoContent(w, r)
}

type AcceptInviteCommandHandler struct {
	invites  InviteStore
	sessions SessionFinder
	realtime Realtime
}

func NewAcceptInviteCommandHandler(
	invites InviteStore,
	sessions SessionFinder,
	rt Realtime,
) *AcceptInviteCommandHandler {
	if rt == nil {
		panic(realtime.ErrCoordinatorNotInitialized)
	}

	return &AcceptInviteCommandHandler{
		invites:  invites,
		sessions: sessions,
		realtime: rt,
	}
}

// Handle checks are advisory; the store's conditional update decides which
// of several concurrent accepts wins.
func (h *AcceptInviteCommandHandler) Handle(
	ctx context.Context,
	request AcceptInviteCommand,
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

	session, err := h.sessions.FindSession(ctx, invite.SessionID)
	switch {
	case errors.Is(err, sessiondomain.ErrSessionNotFound):
		return core.Unit{}, sessionNoLongerActive(invite.SessionID)
	case err != nil:
		return core.Unit{}, core.NewInternalError(err)
	case !session.Active():
		return core.Unit{}, sessionNoLongerActive(invite.SessionID)
	}

	accepted, err := h.invites.AcceptInvite(ctx, invite.ID, request.UserID)
	if err != nil {
		return core.Unit{}, translateTransitionError(invite, err)
	}

	h.realtime.JoinSession(request.UserID, accepted.SessionID)

	joinedAt := accepted.CreatedAt
	if accepted.AcceptedAt != nil {
		joinedAt = *accepted.AcceptedAt
	}

	h.realtime.EmitToSession(accepted.SessionID, realtime.EventUserJoined, realtime.UserJoinedPayload{
		SessionID: accepted.SessionID,
		UserID:    request.UserID,
		Role:      string(sessiondomain.RoleInvited),
		Timestamp: joinedAt,
	})

	return core.Unit{}, nil
}
