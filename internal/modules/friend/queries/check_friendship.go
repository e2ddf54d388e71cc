package queries

import (
	"context"
	"net/http"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
)

type CheckFriendshipQuery struct {
	UserID      uuid.UUID
	OtherUserID uuid.UUID
}

func (q CheckFriendshipQuery) Validate() error {
	return core.Validate(
		validateID("UserID", q.UserID),
		validateID("OtherUserID", q.OtherUserID),
	)
}

type FriendshipResponse struct {
	AreFriends bool `json:"areFriends"`
}

func HandleCheckFriendship(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response, err := mediator.Send[CheckFriendshipQuery, FriendshipResponse](ctx, CheckFriendshipQuery{
		UserID:      core.Session(ctx).UserID,
		OtherUserID: core.URLParamID(r, "userId"),
	})
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type FriendshipChecker interface {
	AreFriends(ctx context.Context, userID uuid.UUID, otherUserID uuid.UUID) (bool, error)
}

type CheckFriendshipQueryHandler struct {
	friends FriendshipChecker
}

func NewCheckFriendshipQueryHandler(friends FriendshipChecker) *CheckFriendshipQueryHandler {
	return &CheckFriendshipQueryHandler{friends}
}

func (h *CheckFriendshipQueryHandler) Handle(ctx context.Context, request CheckFriendshipQuery) (FriendshipResponse, error) {
	areFriends, err := h.friends.AreFriends(ctx, request.UserID, request.OtherUserID)
	if err != nil {
		return FriendshipResponse{}, core.NewInternalError(err)
	}

	return FriendshipResponse{AreFriends: areFriends}, nil
}
