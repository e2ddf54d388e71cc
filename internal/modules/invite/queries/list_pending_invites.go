package queries

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/invite/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type ListPendingInvitesQuery struct {
	UserID uuid.UUID
}

func (q ListPendingInvitesQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - %s", q.UserID.String())
	}

	return nil
}

func HandleListPendingInvites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	invites, err := mediator.Send[ListPendingInvitesQuery, []domain.Invite](
		ctx,
		ListPendingInvitesQuery{UserID: core.Session(ctx).UserID},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, invites)
}

type ListPendingInvitesQueryHandler struct {
	db *sql.DB
}

func NewListPendingInvitesQueryHandler(db *sql.DB) *ListPendingInvitesQueryHandler {
	return &ListPendingInvitesQueryHandler{db}
}

func (h *ListPendingInvitesQueryHandler) Handle(
	ctx context.Context,
	request ListPendingInvitesQuery,
) ([]domain.Invite, error) {
	const query = `
		SELECT
			id, from_user_id, to_user_id, session_id, session_type,
			created_at, accepted_at, declined_at, revoked_at
		FROM
			invites
		WHERE
			to_user_id = $1
			AND accepted_at IS NULL
			AND declined_at IS NULL
			AND revoked_at IS NULL
		ORDER BY
			created_at DESC;`
	invites, err := tql.Query[domain.Invite](ctx, h.db, query, request.UserID)
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	return invites, nil
}
