package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

const sessionColumns = `id, owner_user_id, type, started_at, ended_at, ended_reason`

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db}
}

// ReplaceActiveSession ends the owner's active session, if any, with reason
// replaced and creates a new one with the owner as participant. Both happen
// in one transaction serialised per owner by an advisory lock, so an owner
// never has two active sessions.
func (s *SessionStore) ReplaceActiveSession(
	ctx context.Context,
	ownerID uuid.UUID,
	sessionType domain.SessionType,
) (created domain.Session, replaced *domain.Session, err error) {
	txFn := func(ctx context.Context, tx *sql.Tx) error {
		const lockStmt = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0));`
		if _, err := tql.Exec(ctx, tx, lockStmt, ownerID.String()); err != nil {
			return err
		}

		const endStmt = `
			UPDATE
				run_sessions
			SET
				ended_at = now(),
				ended_reason = 'replaced'
			WHERE
				owner_user_id = $1 AND ended_at IS NULL
			RETURNING ` + sessionColumns + `;`
		previous, err := tql.QueryFirst[domain.Session](ctx, tx, endStmt, ownerID)
		switch {
		case err == nil:
			replaced = &previous
			if err := markLeft(ctx, tx, previous.ID, ownerID); err != nil {
				return err
			}
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		const createStmt = `
			INSERT INTO
				run_sessions (id, owner_user_id, type)
			VALUES
				($1, $2, $3)
			RETURNING ` + sessionColumns + `;`
		created, err = tql.QueryFirst[domain.Session](ctx, tx, createStmt, uuid.New(), ownerID, string(sessionType))
		if err != nil {
			return err
		}

		const participantStmt = `
			INSERT INTO
				session_participants (session_id, user_id, role)
			VALUES
				(:session_id, :user_id, :role);`
		_, err = tql.Exec(ctx, tx, participantStmt, map[string]any{
			"session_id": created.ID,
			"user_id":    ownerID,
			"role":       string(domain.RoleOwner),
		})
		return err
	}

	if err := core.Tx(ctx, s.db, txFn); err != nil {
		return domain.Session{}, nil, err
	}

	return created, replaced, nil
}

func (s *SessionStore) FindSession(ctx context.Context, sessionID uuid.UUID) (domain.Session, error) {
	const query = `
		SELECT
			` + sessionColumns + `
		FROM
			run_sessions
		WHERE
			id = $1;`
	session, err := tql.QueryFirst[domain.Session](ctx, s.db, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	return session, err
}

// EndSession ends an active session owned by ownerID and marks the owner's
// participation as left. Returns ErrSessionAlreadyEnded when the guarded
// update matched nothing.
func (s *SessionStore) EndSession(
	ctx context.Context,
	sessionID uuid.UUID,
	ownerID uuid.UUID,
	reason domain.EndReason,
) (domain.Session, error) {
	var ended domain.Session

	txFn := func(ctx context.Context, tx *sql.Tx) error {
		const stmt = `
			UPDATE
				run_sessions
			SET
				ended_at = now(),
				ended_reason = $3
			WHERE
				id = $1 AND owner_user_id = $2 AND ended_at IS NULL
			RETURNING ` + sessionColumns + `;`

		var err error
		ended, err = tql.QueryFirst[domain.Session](ctx, tx, stmt, sessionID, ownerID, string(reason))
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrSessionAlreadyEnded
		}
		if err != nil {
			return err
		}

		return markLeft(ctx, tx, sessionID, ownerID)
	}

	if err := core.Tx(ctx, s.db, txFn); err != nil {
		return domain.Session{}, err
	}

	return ended, nil
}

// FindActiveSessionID returns the active session userID owns or, failing
// that, the most recently joined active session they still take part in.
func (s *SessionStore) FindActiveSessionID(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	const query = `
		SELECT
			s.id
		FROM
			run_sessions s
		JOIN
			session_participants p ON p.session_id = s.id
		WHERE
			p.user_id = $1 AND p.left_at IS NULL AND s.ended_at IS NULL
		ORDER BY
			(s.owner_user_id = $1) DESC, p.joined_at DESC
		LIMIT 1;`
	sessionID, err := tql.QueryFirst[uuid.UUID](ctx, s.db, query, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return uuid.Nil, false, nil
	case err != nil:
		return uuid.Nil, false, err
	}

	return sessionID, true, nil
}

func markLeft(ctx context.Context, tx *sql.Tx, sessionID uuid.UUID, userID uuid.UUID) error {
	const stmt = `
		UPDATE
			session_participants
		SET
			left_at = now()
		WHERE
			session_id = $1 AND user_id = $2 AND left_at IS NULL;`
	_, err := tql.Exec(ctx, tx, stmt, sessionID, userID)
	return err
}
