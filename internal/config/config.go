package config

import (
	"path"
	"time"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/env"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	PortEnv        = "PORT"
	DatabaseUrlEnv = "DATABASE_URL"
	RedisUrlEnv    = "REDIS_URL"
	RootPathEnv    = "ROOT_PATH"
	LogLevelEnv    = "LOG_LEVEL"
	AppEnvEnv      = "APP_ENV"

	LocationThrottleWindowEnv = "LOCATION_THROTTLE_WINDOW"
	LocationTTLEnv            = "LOCATION_TTL"
	PresenceTTLEnv            = "PRESENCE_TTL"
	WSInboundRateEnv          = "WS_INBOUND_RATE"
	WSInboundBurstEnv         = "WS_INBOUND_BURST"
	WSSendBufferEnv           = "WS_SEND_BUFFER"
)

const (
	defaultPort = 8080

	defaultThrottleWindow = time.Second
	defaultLocationTTL    = 10 * time.Second
	defaultPresenceTTL    = 30 * time.Second

	defaultInboundRate  = 20
	defaultInboundBurst = 40
	defaultSendBuffer   = 64
)

type RealtimeConfiguration struct {
	ThrottleWindow time.Duration
	LocationTTL    time.Duration
	PresenceTTL    time.Duration

	InboundRate  float64
	InboundBurst int
	SendBuffer   int
}

type Config struct {
	Logger *zap.Logger

	Port           int
	DatabaseURL    string
	RedisURL       string
	MigrationsPath string

	Realtime RealtimeConfiguration
}

func Load() (Config, error) {
	logger, err := newLogger(
		env.GetStringOrDefault(LogLevelEnv, "info"),
		env.GetStringOrDefault(AppEnvEnv, "production"),
	)
	if err != nil {
		return Config{}, err
	}

	port, err := env.GetIntOrDefault(PortEnv, defaultPort)
	if err != nil {
		return Config{}, err
	}

	dbURL := env.MustGetString(DatabaseUrlEnv)
	redisURL := env.MustGetString(RedisUrlEnv)
	if dbURL == "" || redisURL == "" {
		return Config{}, errors.Errorf("%s and %s must not be empty", DatabaseUrlEnv, RedisUrlEnv)
	}

	rootPath := env.GetStringOrDefault(RootPathEnv, ".")
	migrationsPath := path.Join(rootPath, "db", "migrations")

	realtime, err := loadRealtime()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Logger:         logger,
		Port:           port,
		DatabaseURL:    dbURL,
		RedisURL:       redisURL,
		MigrationsPath: migrationsPath,
		Realtime:       realtime,
	}, nil
}

func loadRealtime() (RealtimeConfiguration, error) {
	var (
		cfg RealtimeConfiguration
		err error
	)

	if cfg.ThrottleWindow, err = env.GetDurationOrDefault(LocationThrottleWindowEnv, defaultThrottleWindow); err != nil {
		return cfg, err
	}

	if cfg.LocationTTL, err = env.GetDurationOrDefault(LocationTTLEnv, defaultLocationTTL); err != nil {
		return cfg, err
	}

	if cfg.PresenceTTL, err = env.GetDurationOrDefault(PresenceTTLEnv, defaultPresenceTTL); err != nil {
		return cfg, err
	}

	if cfg.InboundRate, err = env.GetFloatOrDefault(WSInboundRateEnv, defaultInboundRate); err != nil {
		return cfg, err
	}

	if cfg.InboundBurst, err = env.GetIntOrDefault(WSInboundBurstEnv, defaultInboundBurst); err != nil {
		return cfg, err
	}

	if cfg.SendBuffer, err = env.GetIntOrDefault(WSSendBufferEnv, defaultSendBuffer); err != nil {
		return cfg, err
	}

	if cfg.InboundRate <= 0 || cfg.InboundBurst <= 0 || cfg.SendBuffer <= 0 {
		return cfg, errors.Errorf(
			"%s, %s and %s must be positive",
			WSInboundRateEnv,
			WSInboundBurstEnv,
			WSSendBufferEnv,
		)
	}

	return cfg, nil
}

// newLogger builds a JSON production logger, or a console logger when
// running locally.
func newLogger(level string, appEnv string) (*zap.Logger, error) {
	parsedLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", LogLevelEnv)
	}

	cfg := zap.NewProductionConfig()
	if appEnv == "local" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parsedLevel)

	return cfg.Build()
}
