package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/userbase/userbase/internal/handler"
	"github.com/userbase/userbase/internal/metrics"
	"github.com/userbase/userbase/internal/middleware"
)

// RouterDeps are the collaborators NewRouter wires into routes.
// Cache is nil when no Redis is configured. Recorder counts request bodies
// rejected before they reach the service.
type RouterDeps struct {
	Users    handler.UserService
	DB       handler.HealthChecker
	Cache    handler.HealthChecker
	Metrics  metrics.Snapshotter
	Recorder metrics.Recorder
	Logger   *slog.Logger

	CORS         middleware.CORSConfig
	Security     middleware.SecurityConfig
	MaxBodyBytes int64
}

// NewRouter builds the chi router with the middleware chain and every route.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := handler.New()
	healthHandler := handler.NewHealthHandler(deps.DB, deps.Cache)
	metricsHandler := handler.NewMetricsHandler(deps.Metrics)
	userHandler := handler.NewUserHandler(deps.Users, deps.Recorder)

	r := chi.NewRouter()

	// Identification and logging wrap everything, including recovered panics.
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AttachLogger(logger))
	r.Use(middleware.Geo)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS(deps.CORS))
	r.Use(middleware.Security(deps.Security))
	if deps.MaxBodyBytes > 0 {
		r.Use(middleware.MaxBodySize(deps.MaxBodyBytes))
	}

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/", h.Hello)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", handler.Handle(userHandler.List))
		r.Post("/", handler.Handle(userHandler.Create))
	})

	return r
}
