// Package server assembles the HTTP routes and middleware chain.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"booknotes/internal/book"
	"booknotes/internal/httpx"
	"booknotes/internal/web"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const healthTimeout = 500 * time.Millisecond

// Pinger is satisfied by the book repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Logger       *zap.Logger
	Books        *book.HTTPHandler
	DB           Pinger
	RateLimit    *httpx.RateLimitMiddleware
	MaxBodyBytes int64
	EnableHSTS   bool
	StartedAt    time.Time
}

// NewRouter wires middleware, static assets, health and the book routes.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}

	r := chi.NewRouter()
	r.Use(httpx.RequestContextMiddleware(logger))
	r.Use(httpx.AccessLogMiddleware(logger))
	r.Use(httpx.RecoveryMiddleware(logger))
	r.Use(httpx.SecurityHeadersMiddleware(opts.EnableHSTS))
	if opts.MaxBodyBytes > 0 {
		r.Use(httpx.RequestSizeLimitMiddleware(opts.MaxBodyBytes))
	}
	if opts.RateLimit != nil {
		r.Use(opts.RateLimit.Middleware)
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Handle("/static/*", web.StaticHandler())
	r.Get("/health", healthHandler(opts.DB, opts.StartedAt))

	opts.Books.Routes(r)
	r.Route("/api", opts.Books.APIRoutes)

	return r
}

func healthHandler(db Pinger, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]any{
			"status":         "ok",
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
			"database":       "up",
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body["database"] = "down"
			}
		}
		httpx.JSONWithRequest(r, w, status, body, nil)
	}
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func notFound(w http.ResponseWriter, r *http.Request) {
	if isAPI(r) {
		httpx.JSONErrorWithRequest(r, w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
		return
	}
	http.NotFound(w, r)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if isAPI(r) {
		httpx.JSONErrorWithRequest(r, w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
