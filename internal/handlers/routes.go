package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/mediabundle/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Media       MediaService
	URLs        ThumbnailURLs
	RateLimiter middleware.RateLimiter
	RetryAfter  time.Duration
	Metrics     http.Handler
	HealthCheck func(ctx context.Context) error
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Check: deps.HealthCheck}
	h := MediaHandler{Media: deps.Media, URLs: deps.URLs}
	limited := middleware.RateLimit(deps.RateLimiter, "media.create", deps.RetryAfter)

	mux.HandleFunc("/healthz", health.Handle)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	mux.Handle("POST /api/v1/media", limited(http.HandlerFunc(h.Create)))
	mux.HandleFunc("GET /api/v1/media", h.List)
	mux.HandleFunc("GET /api/v1/media/{id}", h.Get)
	mux.HandleFunc("GET /api/v1/media/{id}/url", h.URL)
	mux.HandleFunc("DELETE /api/v1/media/{id}", h.Delete)
	mux.HandleFunc("POST /api/v1/media/{id}/thumbnails", h.Regenerate)
}
