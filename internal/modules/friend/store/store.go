package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/friend/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	requestColumns = `id, from_user_id, to_user_id, created_at, accepted_at, declined_at`

	pendingGuard = `accepted_at IS NULL AND declined_at IS NULL`

	uniqueViolation  pq.ErrorCode = "23505"
	pendingPairIndex              = "friend_requests_pending_pair_idx"
)

type FriendStore struct {
	db *sql.DB
}

func NewFriendStore(db *sql.DB) *FriendStore {
	return &FriendStore{db}
}

// CreateRequest relies on the pending pair index to reject a second pending
// request between the same two users in either direction.
func (s *FriendStore) CreateRequest(ctx context.Context, fromUserID uuid.UUID, toUserID uuid.UUID) (domain.FriendRequest, error) {
	const stmt = `
		INSERT INTO
			friend_requests (id, from_user_id, to_user_id)
		VALUES
			($1, $2, $3)
		RETURNING ` + requestColumns + `;`
	request, err := tql.QueryFirst[domain.FriendRequest](ctx, s.db, stmt, uuid.New(), fromUserID, toUserID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == pendingPairIndex {
		return domain.FriendRequest{}, domain.ErrDuplicatePendingRequest
	}

	return request, err
}

func (s *FriendStore) FindRequest(ctx context.Context, requestID uuid.UUID) (domain.FriendRequest, error) {
	const query = `
		SELECT
			` + requestColumns + `
		FROM
			friend_requests
		WHERE
			id = $1;`
	request, err := tql.QueryFirst[domain.FriendRequest](ctx, s.db, query, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FriendRequest{}, domain.ErrFriendRequestNotFound
	}

	return request, err
}

// AcceptRequest marks the request accepted and creates both friendship
// directions in one transaction.
func (s *FriendStore) AcceptRequest(ctx context.Context, requestID uuid.UUID, userID uuid.UUID) error {
	txFn := func(ctx context.Context, tx *sql.Tx) error {
		const acceptStmt = `
			UPDATE
				friend_requests
			SET
				accepted_at = now()
			WHERE
				id = $1 AND to_user_id = $2 AND ` + pendingGuard + `
			RETURNING ` + requestColumns + `;`
		request, err := tql.QueryFirst[domain.FriendRequest](ctx, tx, acceptStmt, requestID, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrFriendRequestNotPending
		}
		if err != nil {
			return err
		}

		friends, err := areFriends(ctx, tx, request.FromUserID, request.ToUserID)
		if err != nil {
			return err
		}
		if friends {
			return domain.ErrAlreadyFriends
		}

		const friendsStmt = `
			INSERT INTO
				friends (user_id, friend_user_id)
			VALUES
				($1, $2), ($2, $1)
			ON CONFLICT (user_id, friend_user_id) DO NOTHING;`
		_, err = tql.Exec(ctx, tx, friendsStmt, request.FromUserID, request.ToUserID)
		return err
	}

	// READ COMMITTED for the same reason as invite acceptance.
	return core.Tx(ctx, s.db, txFn, core.WithIsolationLevel(sql.LevelReadCommitted))
}

func (s *FriendStore) DeclineRequest(ctx context.Context, requestID uuid.UUID, userID uuid.UUID) error {
	const stmt = `
		UPDATE
			friend_requests
		SET
			declined_at = now()
		WHERE
			id = $1 AND to_user_id = $2 AND ` + pendingGuard + `;`
	result, err := tql.Exec(ctx, s.db, stmt, requestID, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrFriendRequestNotPending
	}

	return nil
}

func (s *FriendStore) AreFriends(ctx context.Context, userID uuid.UUID, otherUserID uuid.UUID) (bool, error) {
	return areFriends(ctx, s.db, userID, otherUserID)
}

func areFriends(ctx context.Context, q tql.Querier, userID uuid.UUID, otherUserID uuid.UUID) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT
				1
			FROM
				friends
			WHERE
				user_id = $1 AND friend_user_id = $2
		);`

	return tql.QueryFirst[bool](ctx, q, query, userID, otherUserID)
}
