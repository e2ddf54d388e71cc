package queries

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/friend/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type ListPendingFriendRequestsQuery struct {
	UserID uuid.UUID
}

func (q ListPendingFriendRequestsQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - %s", q.UserID.String())
	}

	return nil
}

func HandleListPendingFriendRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requests, err := mediator.Send[ListPendingFriendRequestsQuery, []domain.FriendRequest](
		ctx,
		ListPendingFriendRequestsQuery{UserID: core.Session(ctx).UserID},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, requests)
}

type ListPendingFriendRequestsQueryHandler struct {
	db *sql.DB
}

func NewListPendingFriendRequestsQueryHandler(db *sql.DB) *ListPendingFriendRequestsQueryHandler {
	return &ListPendingFriendRequestsQueryHandler{db}
}

// Handle lists requests addressed to the user, newest first.
func (h *ListPendingFriendRequestsQueryHandler) Handle(
	ctx context.Context,
	request ListPendingFriendRequestsQuery,
) ([]domain.FriendRequest, error) {
	const query = `
		SELECT
			id, from_user_id, to_user_id, created_at, accepted_at, declined_at
		FROM
			friend_requests
		WHERE
			to_user_id = $1 AND accepted_at IS NULL AND declined_at IS NULL
		ORDER BY
			created_at DESC;`
	requests, err := tql.Query[domain.FriendRequest](ctx, h.db, query, request.UserID)
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	return requests, nil
}
