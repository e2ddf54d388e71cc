package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/invite/domain"
	sessiondomain "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

const inviteColumns = `id, from_user_id, to_user_id, session_id, session_type, created_at, accepted_at, declined_at, revoked_at`

// pendingGuard is appended to every transition so exactly one terminal
// timestamp is ever written.
const pendingGuard = `accepted_at IS NULL AND declined_at IS NULL AND revoked_at IS NULL`

type InviteStore struct {
	db *sql.DB
}

func NewInviteStore(db *sql.DB) *InviteStore {
	return &InviteStore{db}
}

func (s *InviteStore) CreateInvite(
	ctx context.Context,
	fromUserID uuid.UUID,
	toUserID uuid.UUID,
	sessionID uuid.UUID,
	sessionType sessiondomain.SessionType,
) (domain.Invite, error) {
	const stmt = `
		INSERT INTO
			invites (id, from_user_id, to_user_id, session_id, session_type)
		VALUES
			($1, $2, $3, $4, $5)
		RETURNING ` + inviteColumns + `;`

	return tql.QueryFirst[domain.Invite](
		ctx,
		s.db,
		stmt,
		uuid.New(),
		fromUserID,
		toUserID,
		sessionID,
		string(sessionType),
	)
}

func (s *InviteStore) FindInvite(ctx context.Context, inviteID uuid.UUID) (domain.Invite, error) {
	const query = `
		SELECT
			` + inviteColumns + `
		FROM
			invites
		WHERE
			id = $1;`
	invite, err := tql.QueryFirst[domain.Invite](ctx, s.db, query, inviteID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Invite{}, domain.ErrInviteNotFound
	}

	return invite, err
}

// AcceptInvite marks the invite accepted and adds the recipient as an
// invited participant in one transaction. The session row is share-locked
// so it cannot end between the check and the insert.
func (s *InviteStore) AcceptInvite(ctx context.Context, inviteID uuid.UUID, userID uuid.UUID) (domain.Invite, error) {
	var accepted domain.Invite

	txFn := func(ctx context.Context, tx *sql.Tx) error {
		const acceptStmt = `
			UPDATE
				invites
			SET
				accepted_at = now()
			WHERE
				id = $1 AND to_user_id = $2 AND ` + pendingGuard + `
			RETURNING ` + inviteColumns + `;`

		var err error
		accepted, err = tql.QueryFirst[domain.Invite](ctx, tx, acceptStmt, inviteID, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrInviteNotPending
		}
		if err != nil {
			return err
		}

		const activeQuery = `
			SELECT
				ended_at IS NULL
			FROM
				run_sessions
			WHERE
				id = $1
			FOR SHARE;`
		active, err := tql.QueryFirst[bool](ctx, tx, activeQuery, accepted.SessionID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !active) {
			return domain.ErrSessionNoLongerActive
		}
		if err != nil {
			return err
		}

		const participantStmt = `
			INSERT INTO
				session_participants (session_id, user_id, role)
			VALUES
				(:session_id, :user_id, :role)
			ON CONFLICT (session_id, user_id) DO NOTHING;`
		_, err = tql.Exec(ctx, tx, participantStmt, map[string]any{
			"session_id": accepted.SessionID,
			"user_id":    userID,
			"role":       string(sessiondomain.RoleInvited),
		})
		return err
	}

	// The pending guard needs READ COMMITTED so a racing accept re-reads
	// the committed row and matches nothing instead of failing to serialize.
	if err := core.Tx(ctx, s.db, txFn, core.WithIsolationLevel(sql.LevelReadCommitted)); err != nil {
		return domain.Invite{}, err
	}

	return accepted, nil
}

func (s *InviteStore) DeclineInvite(ctx context.Context, inviteID uuid.UUID, userID uuid.UUID) error {
	const stmt = `
		UPDATE
			invites
		SET
			declined_at = now()
		WHERE
			id = $1 AND to_user_id = $2 AND ` + pendingGuard + `;`

	return s.transition(ctx, stmt, inviteID, userID)
}

// RevokeInvite only matches invites to sessions owned by ownerID.
func (s *InviteStore) RevokeInvite(ctx context.Context, inviteID uuid.UUID, ownerID uuid.UUID) error {
	const stmt = `
		UPDATE
			invites
		SET
			revoked_at = now()
		WHERE
			id = $1
			AND session_id IN (SELECT id FROM run_sessions WHERE owner_user_id = $2)
			AND ` + pendingGuard + `;`

	return s.transition(ctx, stmt, inviteID, ownerID)
}

func (s *InviteStore) transition(ctx context.Context, stmt string, inviteID uuid.UUID, userID uuid.UUID) error {
	result, err := tql.Exec(ctx, s.db, stmt, inviteID, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrInviteNotPending
	}

	return nil
}
