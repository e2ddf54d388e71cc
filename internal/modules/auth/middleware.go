package auth

import (
	"net/http"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"

	"github.com/google/uuid"
)

// UserIDHeader carries the caller identity established by the upstream
// gateway. The service trusts it as given.
const UserIDHeader = "X-User-Id"

// UserIDQueryParam is accepted on websocket upgrades since browsers cannot
// set headers on them.
const UserIDQueryParam = "user_id"

func AuthenticationMiddleware(allowQueryParam bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rawID := r.Header.Get(UserIDHeader)
			if rawID == "" && allowQueryParam {
				rawID = r.URL.Query().Get(UserIDQueryParam)
			}

			userID, err := uuid.Parse(rawID)
			if err != nil || userID == uuid.Nil {
				core.WriteUnauthorized(
					w,
					r,
					core.NewCommandError(core.CodeUnauthorizedAction, "missing or invalid caller identity"),
				)
				return
			}

			ctx := core.WithSession(r.Context(), core.ContextSession{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}
