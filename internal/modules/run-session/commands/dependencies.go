package commands

import (
	"context"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionStore interface {
	ReplaceActiveSession(ctx context.Context, ownerID uuid.UUID, sessionType domain.SessionType) (domain.Session, *domain.Session, error)
	FindSession(ctx context.Context, sessionID uuid.UUID) (domain.Session, error)
	EndSession(ctx context.Context, sessionID uuid.UUID, ownerID uuid.UUID, reason domain.EndReason) (domain.Session, error)
}

type Realtime interface {
	JoinSession(userID uuid.UUID, sessionID uuid.UUID) int
	CloseSession(sessionID uuid.UUID) int
	EmitToSession(sessionID uuid.UUID, event realtime.Event, payload interface{}) int
}

// EphemeralState is implemented by the presence tracker and the live
// location store.
type EphemeralState interface {
	Clear(ctx context.Context, userID uuid.UUID) error
}

// announceSessionEnded runs everything that follows a durable session end.
// Every step is attempted and failures are only logged.
func announceSessionEnded(
	ctx context.Context,
	rt Realtime,
	ephemeral []EphemeralState,
	session domain.Session,
) {
	for _, state := range ephemeral {
		if err := state.Clear(ctx, session.OwnerUserID); err != nil {
			core.LogError(
				ctx,
				"failed to clear ephemeral state",
				zap.Stringer("user_id", session.OwnerUserID),
				zap.Stringer("session_id", session.ID),
				zap.Error(err),
			)
		}
	}

	endedAt := session.StartedAt
	if session.EndedAt != nil {
		endedAt = *session.EndedAt
	}

	reason := ""
	if session.EndedReason != nil {
		reason = string(*session.EndedReason)
	}

	rt.EmitToSession(session.ID, realtime.EventSessionEnded, realtime.SessionEndedPayload{
		SessionID: session.ID,
		Reason:    reason,
		Timestamp: endedAt,
	})
	rt.EmitToSession(session.ID, realtime.EventUserLeft, realtime.UserLeftPayload{
		SessionID: session.ID,
		UserID:    session.OwnerUserID,
		Timestamp: endedAt,
	})

	connections := rt.CloseSession(session.ID)

	core.LogInfo(
		ctx,
		"session ended",
		zap.Stringer("session_id", session.ID),
		zap.String("reason", reason),
		zap.Int("connections", connections),
	)
}
