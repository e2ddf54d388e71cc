package server

import (
	"context"
	"net"
	"net/http"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/auth"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	friendcommands "github.com/eskrenkovic/run-sessions-go/internal/modules/friend/commands"
	friendqueries "github.com/eskrenkovic/run-sessions-go/internal/modules/friend/queries"
	invitecommands "github.com/eskrenkovic/run-sessions-go/internal/modules/invite/commands"
	invitequeries "github.com/eskrenkovic/run-sessions-go/internal/modules/invite/queries"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"
	sessioncommands "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/commands"
	sessionqueries "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/queries"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func routes(baseCtx context.Context, c components) http.Handler {
	r := router{
		mux: chi.NewRouter(),
		middleware: []httpMiddleware{
			baseContextMiddleware(baseCtx),
			core.CorrelationIDHTTPMiddleware,
		},
	}

	authenticated := auth.AuthenticationMiddleware(false)

	r.register(http.MethodGet, "/health", handleHealth(c.db, c.redis))
	r.register(http.MethodGet, "/metrics", promhttp.Handler().ServeHTTP)

	r.register(
		http.MethodGet,
		"/ws",
		realtime.HandleWebSocket(c.coordinator, c.throttle, c.presence, c.ws),
		auth.AuthenticationMiddleware(true),
	)

	// run-session

	r.register(http.MethodPost, "/v1/sessions/start", sessioncommands.HandleStartSession, authenticated)
	r.register(http.MethodPost, "/v1/sessions/stop", sessioncommands.HandleStopSession, authenticated)
	r.register(http.MethodGet, "/v1/sessions/active", sessionqueries.HandleGetActiveSession, authenticated)

	// invite

	r.register(http.MethodPost, "/v1/invites", invitecommands.HandleSendInvite, authenticated)
	r.register(http.MethodGet, "/v1/invites/pending", invitequeries.HandleListPendingInvites, authenticated)
	r.register(http.MethodPost, "/v1/invites/{id}/accept", invitecommands.HandleAcceptInvite, authenticated)
	r.register(http.MethodPost, "/v1/invites/{id}/decline", invitecommands.HandleDeclineInvite, authenticated)
	r.register(http.MethodPost, "/v1/invites/{id}/revoke", invitecommands.HandleRevokeInvite, authenticated)

	// friend

	r.register(http.MethodPost, "/v1/friends/requests", friendcommands.HandleSendFriendRequest, authenticated)
	r.register(http.MethodGet, "/v1/friends/requests/pending", friendqueries.HandleListPendingFriendRequests, authenticated)
	r.register(http.MethodPost, "/v1/friends/requests/{id}/accept", friendcommands.HandleAcceptFriendRequest, authenticated)
	r.register(http.MethodPost, "/v1/friends/requests/{id}/decline", friendcommands.HandleDeclineFriendRequest, authenticated)
	r.register(http.MethodGet, "/v1/friends", friendqueries.HandleListFriends, authenticated)
	r.register(http.MethodGet, "/v1/friends/{userId}", friendqueries.HandleCheckFriendship, authenticated)

	return r.mux
}

type httpMiddleware func(http.HandlerFunc) http.HandlerFunc

type router struct {
	mux        chi.Router
	middleware []httpMiddleware
}

func (r *router) register(method string, pattern string, handler http.HandlerFunc, middleware ...httpMiddleware) {
	h := handler

	allMiddleware := append(append([]httpMiddleware{}, r.middleware...), middleware...)

	for i := len(allMiddleware) - 1; i >= 0; i-- {
		h = allMiddleware[i](h)
	}

	r.mux.MethodFunc(method, pattern, h)
}

// baseContextMiddleware swaps the request context for baseCtx, which carries
// the logger, keeping the server values and the chi route context.
func baseContextMiddleware(baseCtx context.Context) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			baseCtx := baseCtx

			if v, ok := ctx.Value(http.ServerContextKey).(*http.Server); ok {
				baseCtx = context.WithValue(baseCtx, http.ServerContextKey, v)
			}

			if v, ok := ctx.Value(http.LocalAddrContextKey).(net.Addr); ok {
				baseCtx = context.WithValue(baseCtx, http.LocalAddrContextKey, v)
			}

			if rctx := chi.RouteContext(ctx); rctx != nil {
				baseCtx = context.WithValue(baseCtx, chi.RouteCtxKey, rctx)
			}

			next.ServeHTTP(w, r.WithContext(baseCtx))
		}
	}
}
