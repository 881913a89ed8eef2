package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/userbase/userbase/internal/middleware"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	db    HealthChecker
	cache HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
// cache is nil when no REDIS_URL is configured.
func NewHealthHandler(db, cache HealthChecker) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cache,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint.
// It returns 200 whenever the process can serve HTTP; no dependencies are checked.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status: "ok",
	}
	writeJSON(w, http.StatusOK, response)
}

// readyTimeout bounds all dependency pings of one readiness probe.
const readyTimeout = 5 * time.Second

// Readyz is a readiness probe endpoint.
// It returns 200 only if Postgres, and Redis when configured, answer a ping.
// Ping errors are logged, not returned, since they may carry hostnames.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	check := func(name string, c HealthChecker, required bool) {
		if c == nil {
			checks[name] = "not configured"
			if required {
				healthy = false
			}
			return
		}
		if err := c.Ping(ctx); err != nil {
			middleware.LoggerFromContext(r.Context()).Warn("readiness_check_failed",
				slog.String("dependency", name),
				slog.Any("error", err),
			)
			checks[name] = "error"
			healthy = false
			return
		}
		checks[name] = "ok"
	}

	check("postgres", h.db, true)
	check("redis", h.cache, false)

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status: status,
		Checks: checks,
	}

	writeJSON(w, statusCode, response)
}
