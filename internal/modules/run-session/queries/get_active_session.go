package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type GetActiveSessionQuery struct {
	UserID uuid.UUID
}

func (q GetActiveSessionQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - %s", q.UserID.String())
	}

	return nil
}

type ActiveSessionResponse struct {
	Session      domain.Session       `json:"session"`
	Participants []domain.Participant `json:"participants"`
}

func HandleGetActiveSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response, err := mediator.Send[GetActiveSessionQuery, ActiveSessionResponse](
		ctx,
		GetActiveSessionQuery{UserID: core.Session(ctx).UserID},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetActiveSessionQueryHandler struct {
	db *sql.DB
}

func NewGetActiveSessionQueryHandler(db *sql.DB) *GetActiveSessionQueryHandler {
	return &GetActiveSessionQueryHandler{db}
}

// Handle returns the session the user currently takes part in, owned or
// joined through an invite, with its remaining participants.
func (h *GetActiveSessionQueryHandler) Handle(
	ctx context.Context,
	request GetActiveSessionQuery,
) (ActiveSessionResponse, error) {
	const sessionQuery = `
		SELECT
			s.id, s.owner_user_id, s.type, s.started_at, s.ended_at, s.ended_reason
		FROM
			run_sessions s
		JOIN
			session_participants p ON p.session_id = s.id
		WHERE
			p.user_id = $1 AND p.left_at IS NULL AND s.ended_at IS NULL
		ORDER BY
			(s.owner_user_id = $1) DESC, p.joined_at DESC
		LIMIT 1;`
	session, err := tql.QueryFirst[domain.Session](ctx, h.db, sessionQuery, request.UserID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ActiveSessionResponse{}, core.NewCommandError(core.CodeSessionNotFound, "no active session")
	case err != nil:
		return ActiveSessionResponse{}, core.NewInternalError(err)
	}

	const participantsQuery = `
		SELECT
			session_id, user_id, role, joined_at, left_at
		FROM
			session_participants
		WHERE
			session_id = $1 AND left_at IS NULL
		ORDER BY
			joined_at;`
	participants, err := tql.Query[domain.Participant](ctx, h.db, participantsQuery, session.ID)
	if err != nil {
		return ActiveSessionResponse{}, core.NewInternalError(err)
	}

	return ActiveSessionResponse{Session: session, Participants: participants}, nil
}
