package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/mediabundle/backend/internal/logging"
	"github.com/mediabundle/backend/internal/media"
	"github.com/mediabundle/backend/internal/videos"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxRequestBody   = 1 << 16
)

// MediaHandler provides endpoints for registering media and resolving thumbnail URLs.
type MediaHandler struct {
	Media MediaService
	URLs  ThumbnailURLs
}

type createMediaRequest struct {
	Provider  string `json:"provider"`
	Reference string `json:"reference"`
	Name      string `json:"name,omitempty"`
}

type mediaPayload struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Provider  string         `json:"provider"`
	Reference string         `json:"reference"`
	Status    string         `json:"status"`
	Metadata  media.Metadata `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type mediaResponse struct {
	Media mediaPayload      `json:"media"`
	URLs  map[string]string `json:"urls,omitempty"`
}

type listMediaResponse struct {
	Media []mediaResponse `json:"media"`
}

type urlResponse struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

// Create handles POST /api/v1/media.
func (h MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req createMediaRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		logger.Warn("invalid media payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	req.Provider = strings.TrimSpace(req.Provider)
	req.Reference = strings.TrimSpace(req.Reference)
	if req.Provider == "" || req.Reference == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "provider and reference are required"})
		return
	}

	m, err := h.Media.Create(ctx, videos.CreateRequest{
		Provider:  req.Provider,
		Reference: req.Reference,
		Name:      req.Name,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, h.present(r, m))
}

// List handles GET /api/v1/media.
func (h MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxListLimit)
	}

	items, err := h.Media.List(ctx, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	resp := listMediaResponse{Media: make([]mediaResponse, 0, len(items))}
	for _, m := range items {
		resp.Media = append(resp.Media, h.present(r, m))
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

// Get handles GET /api/v1/media/{id}.
func (h MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	m, err := h.Media.Get(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, h.present(r, m))
}

// URL handles GET /api/v1/media/{id}/url?format=name.
func (h MediaHandler) URL(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	format := strings.TrimSpace(r.URL.Query().Get("format"))
	if format == "" {
		format = media.ReferenceFormat
	}

	u, err := h.Media.URL(r.Context(), id, format)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, urlResponse{Format: format, URL: u})
}

// Delete handles DELETE /api/v1/media/{id}.
func (h MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Media.Remove(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Regenerate handles POST /api/v1/media/{id}/thumbnails.
func (h MediaHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Media.Regenerate(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusAccepted, map[string]string{"status": media.StatusPending})
}

func (h MediaHandler) present(r *http.Request, m media.Media) mediaResponse {
	id, _ := m.Identity()
	resp := mediaResponse{
		Media: mediaPayload{
			ID:        id,
			Name:      m.Name,
			Provider:  m.ProviderName,
			Reference: m.ProviderReference,
			Status:    m.ProviderStatus,
			Metadata:  m.ProviderMetadata,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}

	if h.URLs != nil {
		urls, err := h.URLs.Thumbnails(m)
		if err != nil {
			logging.FromContext(r.Context()).Warn("resolve media urls", "mediaId", id, "error", err)
		} else {
			resp.URLs = urls
		}
	}
	return resp
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 0 {
		respondJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Error: "invalid media id"})
		return 0, false
	}
	return id, true
}
