package commands

import (
	"context"
	"errors"
	"net/http"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/friend/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
)

type DeclineFriendRequestCommand struct {
	RequestID uuid.UUID
	UserID    uuid.UUID
}

func (c DeclineFriendRequestCommand) Validate() error {
	return core.Validate(
		validateID("RequestID", c.RequestID),
		validateID("UserID", c.UserID),
	)
}

func HandleDeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command := DeclineFriendRequestCommand{
		RequestID: core.URLParamID(r, "id"),
		UserID:    core.Session(ctx).UserID,
	}

	if _, err := mediator.Send[DeclineFriendRequestCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteNoContent(w, r)
}

type DeclineFriendRequestCommandHandler struct {
	store FriendStore
}

func NewDeclineFriendRequestCommandHandler(store FriendStore) *DeclineFriendRequestCommandHandler {
	return &DeclineFriendRequestCommandHandler{store}
}

func (h *DeclineFriendRequestCommandHandler) Handle(
	ctx context.Context,
	request DeclineFriendRequestCommand,
) (core.Unit, error) {
	friendRequest, err := loadOwnPendingRequest(ctx, h.store, request.RequestID, request.UserID)
	if err != nil {
		return core.Unit{}, err
	}

	err = h.store.DeclineRequest(ctx, friendRequest.ID, request.UserID)
	switch {
	case errors.Is(err, domain.ErrFriendRequestNotPending):
		return core.Unit{}, requestNotPending(friendRequest.ID)
	case err != nil:
		return core.Unit{}, core.NewInternalError(err)
	}

	return core.Unit{}, nil
}
