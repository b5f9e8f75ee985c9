package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/mediabundle/backend/internal/logging"
	"github.com/mediabundle/backend/internal/media"
	"github.com/mediabundle/backend/internal/repositories"
	"github.com/mediabundle/backend/internal/videos"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(ctx).Error("request error", "error", err)
	}
	respondJSON(ctx, w, status, errorResponse{Error: message})
}

// classifyError maps domain errors onto an HTTP status and a client-safe message.
func classifyError(err error) (int, string) {
	var statusErr *videos.StatusError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, "media not found"
	case errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict, "media already exists"
	case errors.Is(err, videos.ErrUnknownProvider):
		return http.StatusNotFound, "unknown provider"
	case errors.Is(err, videos.ErrInvalidReference):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, videos.ErrRemoteNotFound):
		return http.StatusNotFound, "video not found at provider"
	case errors.Is(err, videos.ErrThumbnailsNotRequired):
		return http.StatusConflict, "media does not use generated thumbnails"
	case errors.Is(err, media.ErrUnknownFormat):
		return http.StatusBadRequest, "unknown format"
	case errors.Is(err, media.ErrInvalidIdentity):
		return http.StatusConflict, "media has no identity"
	case errors.Is(err, videos.ErrMetadataFetch),
		errors.Is(err, videos.ErrEmptyMetadata),
		errors.Is(err, videos.ErrResponseTooLarge),
		errors.Is(err, videos.ErrProviderUnavailable),
		errors.As(err, &statusErr):
		return http.StatusBadGateway, "metadata provider request failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream timeout"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
