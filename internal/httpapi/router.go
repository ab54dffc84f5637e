// Package httpapi exposes the storage relay over HTTP.
//
// Routes:
//
//	POST /v1/objects  upload a raw or multipart payload
//	POST /v1/relay    fetch a URL and store the response body
//	GET  /healthz     liveness
//	GET  /readyz      readiness (storage credentials)
//
// Successful writes answer 201 with the storage.UploadResult as JSON.
// Failures answer {"error":{"code","message","request_id"}}.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrymomot/objrelay/pkg/health"
	"github.com/dmitrymomot/objrelay/pkg/logger"
)

// DefaultMaxUploadSize caps upload request bodies unless overridden.
const DefaultMaxUploadSize = 50 << 20

// corsMaxAge is the preflight cache duration in seconds.
const corsMaxAge = int(12 * time.Hour / time.Second)

type options struct {
	logger         *slog.Logger
	allowedOrigins []string
	maxUpload      int64
}

// Option configures the router.
type Option func(*options)

// WithLogger sets the logger for access logs and request failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxUploadSize caps upload request bodies. Zero or negative disables the cap.
func WithMaxUploadSize(n int64) Option {
	return func(o *options) {
		o.maxUpload = n
	}
}

// WithAllowedOrigins sets the CORS allowed origins. Defaults to "*".
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) {
		if len(origins) > 0 {
			o.allowedOrigins = origins
		}
	}
}

// NewRouter builds the HTTP handler for relay.
func NewRouter(relay Relayer, opts ...Option) http.Handler {
	o := &options{
		logger:         logger.NewNope(),
		allowedOrigins: []string{"*"},
		maxUpload:      DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(o)
	}

	h := &handler{relay: relay, logger: o.logger, maxUpload: o.maxUpload}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(AccessLog(o.logger))
	r.Use(Recover(o.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: o.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         corsMaxAge,
	}))

	r.Get("/healthz", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler(
		health.Checks{"storage": relay.Ping},
		health.WithLogger(o.logger),
	))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/objects", h.handleUpload)
		r.Post("/relay", h.handleRelay)
	})

	return r
}
