package repositories

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/mediabundle/backend/internal/media"
	"github.com/mediabundle/backend/internal/videos"
)

// MediaRepository exposes data access for media items.
type MediaRepository interface {
	Create(ctx context.Context, m media.Media) (int64, error)
	Get(ctx context.Context, id int64) (media.Media, error)
	List(ctx context.Context, limit int) ([]media.Media, error)
	Delete(ctx context.Context, id int64) error
	MarkThumbnailsPending(ctx context.Context, id int64) error
	MarkThumbnailsReady(ctx context.Context, id int64) error
	MarkThumbnailsFailed(ctx context.Context, id int64) error
}

func encodeMetadata(metadata media.Metadata) (string, error) {
	if metadata == nil {
		return "{}", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("encode provider metadata: %w", err)
	}
	return string(data), nil
}

func decodeMetadata(data []byte) (media.Metadata, error) {
	metadata := media.Metadata{}
	if len(data) == 0 {
		return metadata, nil
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("decode provider metadata: %w", err)
	}
	return metadata, nil
}

func defaultStatus(status string) string {
	if status == "" {
		return media.StatusPending
	}
	return status
}

var (
	_ videos.MediaStore             = MediaRepository(nil)
	_ videos.ThumbnailStatusUpdater = MediaRepository(nil)
)
