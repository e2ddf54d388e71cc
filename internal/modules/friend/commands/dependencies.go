package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/friend/domain"

	"github.com/google/uuid"
)

type FriendStore interface {
	CreateRequest(ctx context.Context, fromUserID uuid.UUID, toUserID uuid.UUID) (domain.FriendRequest, error)
	FindRequest(ctx context.Context, requestID uuid.UUID) (domain.FriendRequest, error)
	AcceptRequest(ctx context.Context, requestID uuid.UUID, userID uuid.UUID) error
	DeclineRequest(ctx context.Context, requestID uuid.UUID, userID uuid.UUID) error
	AreFriends(ctx context.Context, userID uuid.UUID, otherUserID uuid.UUID) (bool, error)
}

func validateID(name string, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("invalid %s - '%s'", name, id)
	}

	return nil
}

// loadOwnPendingRequest returns the request if userID is its recipient and
// it is still pending. The check is advisory; the guarded update decides.
func loadOwnPendingRequest(
	ctx context.Context,
	store FriendStore,
	requestID uuid.UUID,
	userID uuid.UUID,
) (domain.FriendRequest, error) {
	request, err := store.FindRequest(ctx, requestID)
	switch {
	case errors.Is(err, domain.ErrFriendRequestNotFound):
		return domain.FriendRequest{}, core.NewCommandError(
			core.CodeFriendRequestNotFound,
			fmt.Sprintf("friend request %s not found", requestID),
		)
	case err != nil:
		return domain.FriendRequest{}, core.NewInternalError(err)
	}

	if request.ToUserID != userID {
		return domain.FriendRequest{}, core.NewCommandError(
			core.CodeNotYourFriendRequest,
			"friend request was sent to another user",
		)
	}

	if !request.Pending() {
		return domain.FriendRequest{}, requestNotPending(requestID)
	}

	return request, nil
}

func requestNotPending(requestID uuid.UUID) error {
	return core.NewCommandError(
		core.CodeFriendRequestNotPending,
		fmt.Sprintf("friend request %s is no longer pending", requestID),
	)
}

func alreadyFriends() error {
	return core.NewCommandError(core.CodeAlreadyFriends, "users are already friends")
}
