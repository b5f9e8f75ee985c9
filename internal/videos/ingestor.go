package videos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mediabundle/backend/internal/imaging"
	"github.com/mediabundle/backend/internal/logging"
	"github.com/mediabundle/backend/internal/media"
	"github.com/mediabundle/backend/internal/metrics"
	"github.com/mediabundle/backend/internal/storage"
)

// ThumbnailStatusUpdater persists the outcome of thumbnail generation.
type ThumbnailStatusUpdater interface {
	MarkThumbnailsPending(ctx context.Context, id int64) error
	MarkThumbnailsReady(ctx context.Context, id int64) error
	MarkThumbnailsFailed(ctx context.Context, id int64) error
}

// ReferenceDownloader fetches the original preview image of a media item.
type ReferenceDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// ThumbnailIngestorConfig controls the concurrency characteristics of the ingestor.
type ThumbnailIngestorConfig struct {
	QueueSize  int
	Workers    int
	JobTimeout time.Duration
}

// ThumbnailIngestorDeps groups the collaborators a thumbnail job needs.
type ThumbnailIngestorDeps struct {
	Resolver   *media.PathResolver
	Generator  *media.ThumbnailGenerator
	Downloader ReferenceDownloader
	Storage    storage.Storage
	Updater    ThumbnailStatusUpdater
}

// ThumbnailIngestor asynchronously stores reference images and renders thumbnails.
type ThumbnailIngestor struct {
	deps       ThumbnailIngestorDeps
	jobTimeout time.Duration
	logger     *slog.Logger

	jobs   chan ingestJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type ingestJob struct {
	media media.Media
}

var errIngestorClosed = errors.New("thumbnail ingestor closed")

// NewThumbnailIngestor constructs a background worker pool that generates thumbnails.
func NewThumbnailIngestor(deps ThumbnailIngestorDeps, cfg ThumbnailIngestorConfig, logger *slog.Logger) *ThumbnailIngestor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	ing := &ThumbnailIngestor{
		deps:       deps,
		jobTimeout: cfg.JobTimeout,
		logger:     logger,
		jobs:       make(chan ingestJob, cfg.QueueSize),
		ctx:        ctx,
		cancel:     cancel,
	}

	ing.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go ing.worker()
	}

	return ing
}

// Enqueue schedules thumbnail generation for the supplied media.
func (i *ThumbnailIngestor) Enqueue(ctx context.Context, m media.Media) error {
	if _, err := m.Identity(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	default:
	}

	job := ingestJob{media: m}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	case i.jobs <- job:
		metrics.SetQueueDepth(len(i.jobs))
		return nil
	}
}

// Shutdown stops accepting jobs and waits for the workers to exit. Jobs still queued
// are dropped; their media stays pending until regenerated.
func (i *ThumbnailIngestor) Shutdown(ctx context.Context) error {
	i.once.Do(func() {
		i.cancel()
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (i *ThumbnailIngestor) worker() {
	defer i.wg.Done()

	for {
		select {
		case <-i.ctx.Done():
			return
		case job := <-i.jobs:
			metrics.SetQueueDepth(len(i.jobs))
			i.handleJob(job)
		}
	}
}

func (i *ThumbnailIngestor) handleJob(job ingestJob) {
	id, _ := job.media.Identity()

	if i.deps.Resolver == nil || i.deps.Generator == nil || i.deps.Downloader == nil || i.deps.Storage == nil || i.deps.Updater == nil {
		i.logger.Error("thumbnail ingestor missing dependencies", "mediaId", id)
		if i.deps.Updater != nil {
			i.recordFailure(id)
		}
		return
	}

	ctx, cancel := context.WithTimeout(logging.WithLogger(context.Background(), i.logger), i.jobTimeout)
	defer cancel()

	ctx, span := logging.StartSpan(ctx, "thumbnails.generate", "mediaId", id)
	defer span.End()
	logger := logging.FromContext(ctx)

	start := time.Now()
	err := i.process(ctx, job.media)
	metrics.RecordThumbnailJob(time.Since(start), err)

	if err != nil {
		span.Fail(err)
		logger.Error("thumbnail generation failed", "mediaId", id, "provider", job.media.ProviderName, "error", err)
		i.recordFailure(id)
		return
	}

	if err := i.recordSuccess(id); err != nil {
		logger.Error("mark thumbnails ready", "mediaId", id, "error", err)
		i.recordFailure(id)
		return
	}
	logger.Info("thumbnails generated", "mediaId", id, "formats", i.deps.Resolver.Formats().Len())
}

func (i *ThumbnailIngestor) process(ctx context.Context, m media.Media) error {
	referenceURL, err := i.deps.Resolver.PublicURL(m, media.ReferenceFormat)
	if err != nil {
		return fmt.Errorf("resolve reference image: %w", err)
	}

	source, err := i.deps.Downloader.Download(ctx, referenceURL)
	if err != nil {
		return err
	}
	if _, err := imaging.Sniff(source); err != nil {
		return fmt.Errorf("reference image %s: %w", referenceURL, err)
	}

	key, err := i.deps.Resolver.PrivatePath(m, media.ReferenceFormat)
	if err != nil {
		return err
	}
	if _, err := i.deps.Storage.Save(ctx, key, bytes.NewReader(source)); err != nil {
		return fmt.Errorf("store reference image: %w", err)
	}

	return i.deps.Generator.Generate(ctx, m, source)
}

func (i *ThumbnailIngestor) recordFailure(id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := i.deps.Updater.MarkThumbnailsFailed(ctx, id); err != nil {
		i.logger.Error("record thumbnail failure", "mediaId", id, "error", err)
	}
}

func (i *ThumbnailIngestor) recordSuccess(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return i.deps.Updater.MarkThumbnailsReady(ctx, id)
}
