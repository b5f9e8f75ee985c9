package handlers

import (
	"context"

	"github.com/mediabundle/backend/internal/media"
	"github.com/mediabundle/backend/internal/videos"
)

// MediaService captures the media lifecycle operations exposed over HTTP.
type MediaService interface {
	Create(ctx context.Context, req videos.CreateRequest) (media.Media, error)
	Get(ctx context.Context, id int64) (media.Media, error)
	List(ctx context.Context, limit int) ([]media.Media, error)
	URL(ctx context.Context, id int64, format string) (string, error)
	Remove(ctx context.Context, id int64) error
	Regenerate(ctx context.Context, id int64) error
}

// ThumbnailURLs resolves every public URL of a media item.
type ThumbnailURLs interface {
	Thumbnails(m media.Media) (map[string]string, error)
}
