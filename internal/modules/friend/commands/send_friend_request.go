package commands

import (
	"context"
	"errors"
	"net/http"
	"path"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/friend/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
)

type SendFriendRequestCommand struct {
	FromUserID uuid.UUID `json:"-"`
	ToUserID   uuid.UUID `json:"toUserId"`
}

func (c SendFriendRequestCommand) Validate() error {
	return core.Validate(
		validateID("FromUserID", c.FromUserID),
		validateID("ToUserID", c.ToUserID),
	)
}

func HandleSendFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command, err := core.RequestBody[SendFriendRequestCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.FromUserID = core.Session(ctx).UserID

	request, err := mediator.Send[SendFriendRequestCommand, domain.FriendRequest](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteCreated(w, r, path.Join("/v1/friends/requests", request.ID.String()), request)
}

type SendFriendRequestCommandHandler struct {
	store FriendStore
}

func NewSendFriendRequestCommandHandler(store FriendStore) *SendFriendRequestCommandHandler {
	return &SendFriendRequestCommandHandler{store}
}

func (h *SendFriendRequestCommandHandler) Handle(
	ctx context.Context,
	request SendFriendRequestCommand,
) (domain.FriendRequest, error) {
	if request.FromUserID == request.ToUserID {
		return domain.FriendRequest{}, core.NewCommandError(core.CodeCannotFriendSelf, "cannot send a friend request to yourself")
	}

	friends, err := h.store.AreFriends(ctx, request.FromUserID, request.ToUserID)
	if err != nil {
		return domain.FriendRequest{}, core.NewInternalError(err)
	}
	if friends {
		return domain.FriendRequest{}, alreadyFriends()
	}

	created, err := h.store.CreateRequest(ctx, request.FromUserID, request.ToUserID)
	switch {
	case errors.Is(err, domain.ErrDuplicatePendingRequest):
		return domain.FriendRequest{}, core.NewCommandError(
			core.CodeFriendRequestAlreadyPending,
			"a friend request between these users is already pending",
			core.WithCause(err),
		)
	case err != nil:
		return domain.FriendRequest{}, core.NewInternalError(err)
	}

	return created, nil
}
