package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"strconv"

	"github.com/eskrenkovic/run-sessions-go/internal/config"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	frienddomain "github.com/eskrenkovic/run-sessions-go/internal/modules/friend/domain"
	friendstore "github.com/eskrenkovic/run-sessions-go/internal/modules/friend/store"
	invitedomain "github.com/eskrenkovic/run-sessions-go/internal/modules/invite/domain"
	invitestore "github.com/eskrenkovic/run-sessions-go/internal/modules/invite/store"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/location"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/presence"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"
	sessiondomain "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"
	sessionstore "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/store"
	userdomain "github.com/eskrenkovic/run-sessions-go/internal/modules/user/domain"
	userstore "github.com/eskrenkovic/run-sessions-go/internal/modules/user/store"

	"github.com/eskrenkovic/migrate-go"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Server interface {
	Start() error
	Stop(ctx context.Context) error
}

var _ Server = &HTTPServer{}

// HTTPServer acts as the composition root for an application.
type HTTPServer struct {
	server *http.Server
	db     *sql.DB
	redis  *redis.Client
	logger *zap.Logger
}

// components is everything handlers are wired against. The coordinator is
// built before any handler so none of them can observe it uninitialised.
type components struct {
	db    *sql.DB
	redis *redis.Client

	coordinator *realtime.Coordinator
	presence    *presence.Tracker
	locations   *location.Store
	throttle    *location.Throttle

	sessions *sessionstore.SessionStore
	invites  *invitestore.InviteStore
	friends  *friendstore.FriendStore
	settings *userstore.SettingsStore

	ws realtime.WebSocketConfig
}

func NewHTTPServer(cfg config.Config) (*HTTPServer, error) {
	baseCtx := core.WithLogger(context.Background(), cfg.Logger)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := migrate.Run(baseCtx, db, cfg.MigrationsPath); err != nil {
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	if err := primeScanCache(baseCtx, db); err != nil {
		return nil, errors.Wrap(err, "failed to prime scan cache")
	}

	redisOptions, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis url")
	}
	redisClient := redis.NewClient(redisOptions)

	c := newComponents(cfg, db, redisClient)

	if err := registerHandlers(cfg.Logger, c); err != nil {
		return nil, err
	}

	server := http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		Handler: routes(baseCtx, c),
	}

	return &HTTPServer{
		server: &server,
		db:     db,
		redis:  redisClient,
		logger: cfg.Logger,
	}, nil
}

func newComponents(cfg config.Config, db *sql.DB, redisClient *redis.Client) components {
	clk := clockwork.NewRealClock()

	sessions := sessionstore.NewSessionStore(db)
	coordinator := realtime.NewCoordinator(cfg.Logger.Named("realtime"), sessions, clk)
	locations := location.NewStore(redisClient, cfg.Realtime.LocationTTL)

	ws := realtime.DefaultWebSocketConfig()
	ws.InboundRate = rate.Limit(cfg.Realtime.InboundRate)
	ws.InboundBurst = cfg.Realtime.InboundBurst
	ws.SendBuffer = cfg.Realtime.SendBuffer

	return components{
		db:          db,
		redis:       redisClient,
		coordinator: coordinator,
		presence:    presence.NewTracker(redisClient, coordinator, cfg.Realtime.PresenceTTL, clk, cfg.Logger.Named("presence")),
		locations:   locations,
		throttle:    location.NewThrottle(locations, coordinator, cfg.Realtime.ThrottleWindow, clk, cfg.Logger.Named("location")),
		sessions:    sessions,
		invites:     invitestore.NewInviteStore(db),
		friends:     friendstore.NewFriendStore(db),
		settings:    userstore.NewSettingsStore(db),
		ws:          ws,
	}
}

// primeScanCache runs once for every struct the stores scan rows into.
func primeScanCache(ctx context.Context, db *sql.DB) error {
	primers := []func() error{
		func() error { return core.PrimeScanCache[sessiondomain.Session](ctx, db, "id") },
		func() error { return core.PrimeScanCache[sessiondomain.Participant](ctx, db, "session_id") },
		func() error { return core.PrimeScanCache[invitedomain.Invite](ctx, db, "id") },
		func() error { return core.PrimeScanCache[frienddomain.FriendRequest](ctx, db, "id") },
		func() error { return core.PrimeScanCache[frienddomain.Friend](ctx, db, "user_id") },
		func() error { return core.PrimeScanCache[userdomain.Settings](ctx, db, "user_id") },
	}

	for _, prime := range primers {
		if err := prime(); err != nil {
			return err
		}
	}

	return nil
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	shutdownErr := s.server.Shutdown(ctx)

	if err := s.redis.Close(); err != nil {
		s.logger.Warn("failed to close redis client", zap.Error(err))
	}

	if err := s.db.Close(); err != nil {
		s.logger.Warn("failed to close database", zap.Error(err))
	}

	return shutdownErr
}
