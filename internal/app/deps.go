package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mediabundle/backend/internal/config"
	"github.com/mediabundle/backend/internal/handlers"
	"github.com/mediabundle/backend/internal/imaging"
	"github.com/mediabundle/backend/internal/media"
	"github.com/mediabundle/backend/internal/metrics"
	"github.com/mediabundle/backend/internal/middleware"
	"github.com/mediabundle/backend/internal/repositories"
	"github.com/mediabundle/backend/internal/storage"
	"github.com/mediabundle/backend/internal/videos"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup stops the thumbnail workers.
func buildDependencies(ctx context.Context, repo repositories.MediaRepository, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	formats, err := media.ParseFormats(cfg.Formats)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("thumbnail formats: %w", err)
	}

	store, err := storage.New(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	vimeo := videos.NewVimeoProvider(cfg.VimeoOEmbedURL, cfg.FetchTimeout)
	ytdlp := videos.NewYTDLPProvider(cfg.YTDLPPath, cfg.YTDLPTimeout)
	providers := videos.NewPool(
		videos.NewCachingProvider(vimeo, cfg.MetadataCacheTTL),
		videos.NewCachingProvider(ytdlp, cfg.MetadataCacheTTL),
	)

	resolver := media.NewPathResolver(cfg.CDNBasePath, formats, providers)
	generator := media.NewThumbnailGenerator(resolver, imaging.NewResizer(store, cfg.ThumbnailQuality))

	ingestor := videos.NewThumbnailIngestor(videos.ThumbnailIngestorDeps{
		Resolver:   resolver,
		Generator:  generator,
		Downloader: videos.NewDownloader(cfg.FetchTimeout),
		Storage:    store,
		Updater:    repo,
	}, videos.ThumbnailIngestorConfig{
		QueueSize:  cfg.Ingest.QueueSize,
		Workers:    cfg.Ingest.Workers,
		JobTimeout: cfg.Ingest.JobTimeout,
	}, logger)

	service := videos.NewService(videos.ServiceDeps{
		Providers: providers,
		Store:     repo,
		Resolver:  resolver,
		Storage:   store,
		Queue:     ingestor,
		Updater:   repo,
	})

	var retryAfter time.Duration
	if cfg.RateLimit.Requests > 0 {
		retryAfter = cfg.RateLimit.Window / time.Duration(cfg.RateLimit.Requests)
	}

	deps := handlers.Dependencies{
		Media:       service,
		URLs:        resolver,
		RateLimiter: middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, 10*time.Minute),
		RetryAfter:  retryAfter,
		Metrics:     metrics.Handler(),
	}

	logger.Info("dependencies ready",
		"providers", providers.Names(),
		"formats", formats.Names(),
		"storage", cfg.ObjectStore.Backend,
	)
	return deps, ingestor.Shutdown, nil
}
