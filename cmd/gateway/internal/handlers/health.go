package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	redis  *redis.Client
	db     *sqlx.DB
	logger *zap.Logger
}

func NewHealthHandler(redisClient *redis.Client, db *sqlx.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{redis: redisClient, db: db, logger: logger}
}

// HandleHealth handles GET /health. Liveness only: the process is up.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleReadiness handles GET /readiness: dependency checks with a short
// timeout so a probe never hangs.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.Warn("Readiness: Redis unreachable", zap.Error(err))
			checks["redis"] = "unavailable"
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Warn("Readiness: Postgres unreachable", zap.Error(err))
			checks["database"] = "unavailable"
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
	})
}
