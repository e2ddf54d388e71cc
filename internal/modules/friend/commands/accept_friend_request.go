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

type AcceptFriendRequestCommand struct {
	RequestID uuid.UUID
	UserID    uuid.UUID
}

func (c AcceptFriendRequestCommand) Validate() error {
	return core.Validate(
		validateID("RequestID", c.RequestID),
		validateID("UserID", c.UserID),
	)
}

func HandleAcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command := AcceptFriendRequestCommand{
		RequestID: core.URLParamID(r, "id"),
		UserID:    core.Session(ctx).UserID,
	}

	if _, err := mediator.Send[AcceptFriendRequestCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteNoContent(w, r)
}

type AcceptFriendRequestCommandHandler struct {
	store FriendStore
}

func NewAcceptFriendRequestCommandHandler(store FriendStore) *AcceptFriendRequestCommandHandler {
	return &AcceptFriendRequestCommandHandler{store}
}

func (h *AcceptFriendRequestCommandHandler) Handle(
	ctx context.Context,
	request AcceptFriendRequestCommand,
) (core.Unit, error) {
	friendRequest, err := loadOwnPendingRequest(ctx, h.store, request.RequestID, request.UserID)
	if err != nil {
		return core.Unit{}, err
	}

	err = h.store.AcceptRequest(ctx, friendRequest.ID, request.UserID)
	switch {
	case errors.Is(err, domain.ErrFriendRequestNotPending):
		return core.Unit{}, requestNotPending(friendRequest.ID)
	case errors.Is(err, domain.ErrAlreadyFriends):
		return core.Unit{}, alreadyFriends()
	case err != nil:
		return core.Unit{}, core.NewInternalError(err)
	}

	return core.Unit{}, nil
}
