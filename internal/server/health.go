package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status   string `json:"status"`
	Postgres string `json:"postgres"`
	Redis    string `json:"redis"`
}

type pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

func handleHealth(db *sql.DB, redisClient pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		response := healthResponse{Status: "ok", Postgres: "ok", Redis: "ok"}

		if err := db.PingContext(ctx); err != nil {
			core.Logger(ctx).Warn("postgres health check failed", zap.Error(err))
			response.Status, response.Postgres = "degraded", "unavailable"
		}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			core.Logger(ctx).Warn("redis health check failed", zap.Error(err))
			response.Status, response.Redis = "degraded", "unavailable"
		}

		status := http.StatusOK
		if response.Status != "ok" {
			status = http.StatusServiceUnavailable
		}

		core.WriteResponse(w, r, status, response)
	}
}
