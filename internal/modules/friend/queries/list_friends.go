package queries

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/friend/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type ListFriendsQuery struct {
	UserID uuid.UUID
}

func (q ListFriendsQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - %s", q.UserID.String())
	}

	return nil
}

type FriendResponse struct {
	UserID uuid.UUID `json:"userId"`
	Since  time.Time `json:"since"`
}

func HandleListFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	friends, err := mediator.Send[ListFriendsQuery, []FriendResponse](
		ctx,
		ListFriendsQuery{UserID: core.Session(ctx).UserID},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, friends)
}

type ListFriendsQueryHandler struct {
	db *sql.DB
}

func NewListFriendsQueryHandler(db *sql.DB) *ListFriendsQueryHandler {
	return &ListFriendsQueryHandler{db}
}

func (h *ListFriendsQueryHandler) Handle(ctx context.Context, request ListFriendsQuery) ([]FriendResponse, error) {
	const query = `
		SELECT
			user_id, friend_user_id, created_at
		FROM
			friends
		WHERE
			user_id = $1
		ORDER BY
			created_at DESC;`
	friends, err := tql.Query[domain.Friend](ctx, h.db, query, request.UserID)
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	return core.Map(friends, func(f domain.Friend) FriendResponse {
		return FriendResponse{UserID: f.FriendUserID, Since: f.CreatedAt}
	}), nil
}
