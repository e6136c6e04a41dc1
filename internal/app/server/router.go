package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ulule/limiter/v3"

	"hris/internal/platform/config"
	"hris/internal/platform/metrics"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
)

// multipartOverhead leaves room for boundaries and form fields around a file
// of the maximum upload size.
const multipartOverhead = 64 << 10

// Routes is implemented by every handler package.
type Routes interface {
	RegisterRoutes(r chi.Router)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterOptions struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Registry
	Limiter  limiter.Store
	Sessions middleware.SessionChecker
	DB       Pinger
	Routes   []Routes
}

func NewRouter(opts RouterOptions) http.Handler {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := opts.Metrics
	if !cfg.MetricsEnabled {
		reg = nil
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(cfg.FrontendOrigins))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(reg))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes+multipartOverhead))
	router.Use(middleware.Auth(cfg.JWTSecret, opts.Sessions))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(r.Context()))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := opts.DB.Ping(ctx); err != nil {
				logger.Warn("readiness check failed", "err", err)
				api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database not ready", middleware.GetRequestID(r.Context()))
				return
			}
		}
		api.Success(w, map[string]string{"status": "ready"}, middleware.GetRequestID(r.Context()))
	})
	if reg != nil {
		router.Method(http.MethodGet, "/metrics", reg.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if opts.Limiter != nil {
			window := time.Minute
			r.Use(middleware.RateLimit(opts.Limiter, int(cfg.RateLimitPerMinute), window))
			r.Use(middleware.SensitiveMutationRateLimit(opts.Limiter, int(cfg.RateLimitPerMinute), window))
		}
		for _, routes := range opts.Routes {
			routes.RegisterRoutes(r)
		}
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", middleware.GetRequestID(r.Context()))
	})
	return router
}
