package commands

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
)

type StartSessionCommand struct {
	UserID uuid.UUID          `json:"-"`
	Type   domain.SessionType `json:"type"`
}

func (c StartSessionCommand) Validate() error {
	return core.Validate(
		validateUserID(c.UserID),
		validateSessionType(c.Type),
	)
}

func HandleStartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command, err := core.RequestBody[StartSessionCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.UserID = core.Session(ctx).UserID

	session, err := mediator.Send[StartSessionCommand, domain.Session](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteCreated(w, r, path.Join("/v1/sessions", session.ID.String()), session)
}

type StartSessionCommandHandler struct {
	store     SessionStore
	realtime  Realtime
	ephemeral []EphemeralState
}

func NewStartSessionCommandHandler(
	store SessionStore,
	rt Realtime,
	ephemeral ...EphemeralState,
) *StartSessionCommandHandler {
	if rt == nil {
		panic(realtime.ErrCoordinatorNotInitialized)
	}

	return &StartSessionCommandHandler{
		store:     store,
		realtime:  rt,
		ephemeral: ephemeral,
	}
}

func (h *StartSessionCommandHandler) Handle(
	ctx context.Context,
	request StartSessionCommand,
) (domain.Session, error) {
	created, replaced, err := h.store.ReplaceActiveSession(ctx, request.UserID, request.Type)
	if err != nil {
		return domain.Session{}, core.NewInternalError(err)
	}

	if replaced != nil {
		announceSessionEnded(ctx, h.realtime, h.ephemeral, *replaced)
	}

	h.realtime.JoinSession(request.UserID, created.ID)

	h.realtime.EmitToSession(created.ID, realtime.EventSessionStarted, realtime.SessionStartedPayload{
		SessionID: created.ID,
		OwnerID:   created.OwnerUserID,
		Type:      string(created.Type),
		Timestamp: created.StartedAt,
	})
	h.realtime.EmitToSession(created.ID, realtime.EventUserJoined, realtime.UserJoinedPayload{
		SessionID: created.ID,
		UserID:    request.UserID,
		Role:      string(domain.RoleOwner),
		Timestamp: created.StartedAt,
	})

	return created, nil
}

func validateUserID(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", userID)
	}

	return nil
}

func validateSessionType(sessionType domain.SessionType) error {
	if !sessionType.Valid() {
		return fmt.Errorf("invalid Type - '%s'", sessionType)
	}

	return nil
}
