package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
)

type StopSessionCommand struct {
	UserID    uuid.UUID        `json:"-"`
	SessionID uuid.UUID        `json:"sessionId"`
	Reason    domain.EndReason `json:"reason"`
}

func (c StopSessionCommand) Validate() error {
	var sessionIDErr, reasonErr error

	if c.SessionID == uuid.Nil {
		sessionIDErr = fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if !c.Reason.ClientSelectable() {
		reasonErr = fmt.Errorf("invalid Reason - '%s'", c.Reason)
	}

	return core.Validate(validateUserID(c.UserID), sessionIDErr, reasonErr)
}

func HandleStopSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command, err := core.RequestBody[StopSessionCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.UserID = core.Session(ctx).UserID

	if _, err := mediator.Send[StopSessionCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteNoContent(w, r)
}

type StopSessionCommandHandler struct {
	store     SessionStore
	realtime  Realtime
	ephemeral []EphemeralState
}

func NewStopSessionCommandHandler(
	store SessionStore,
	rt Realtime,
	ephemeral ...EphemeralState,
) *StopSessionCommandHandler {
	if rt == nil {
		panic(realtime.ErrCoordinatorNotInitialized)
	}

	return &StopSessionCommandHandler{
		store:     store,
		realtime:  rt,
		ephemeral: ephemeral,
	}
}

func (h *StopSessionCommandHandler) Handle(
	ctx context.Context,
	request StopSessionCommand,
) (core.Unit, error) {
	session, err := h.store.FindSession(ctx, request.SessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return core.Unit{}, core.NewCommandError(
			core.CodeSessionNotFound,
			fmt.Sprintf("session %s not found", request.SessionID),
		)
	case err != nil:
		return core.Unit{}, core.NewInternalError(err)
	}

	if session.OwnerUserID != request.UserID {
		return core.Unit{}, core.NewCommandError(
			core.CodeUnauthorizedAction,
			"only the session owner can stop the session",
		)
	}

	if !session.Active() {
		return core.Unit{}, sessionAlreadyEnded(session.ID)
	}

	ended, err := h.store.EndSession(ctx, session.ID, request.UserID, request.Reason)
	switch {
	case errors.Is(err, domain.ErrSessionAlreadyEnded):
		return core.Unit{}, sessionAlreadyEnded(session.ID)
	case err != nil:
		return core.Unit{}, core.NewInternalError(err)
	}

	announceSessionEnded(ctx, h.realtime, h.ephemeral, ended)

	return core.Unit{}, nil
}

func sessionAlreadyEnded(sessionID uuid.UUID) error {
	return core.NewCommandError(
		core.CodeSessionAlreadyEnded,
		fmt.Sprintf("session %s has already ended", sessionID),
	)
}
