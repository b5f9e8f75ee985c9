package videos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mediabundle/backend/internal/logging"
	"github.com/mediabundle/backend/internal/media"
	"github.com/mediabundle/backend/internal/metrics"
	"github.com/mediabundle/backend/internal/storage"
)

// MediaStore persists media items.
type MediaStore interface {
	Create(ctx context.Context, m media.Media) (int64, error)
	Get(ctx context.Context, id int64) (media.Media, error)
	List(ctx context.Context, limit int) ([]media.Media, error)
	Delete(ctx context.Context, id int64) error
}

// ThumbnailQueue schedules background thumbnail generation.
type ThumbnailQueue interface {
	Enqueue(ctx context.Context, m media.Media) error
}

// CreateRequest describes a new media item.
type CreateRequest struct {
	Provider  string
	Reference string
	Name      string
}

// ServiceDeps groups the collaborators of Service.
type ServiceDeps struct {
	Providers *Pool
	Store     MediaStore
	Resolver  *media.PathResolver
	Storage   storage.Storage
	Queue     ThumbnailQueue
	Updater   ThumbnailStatusUpdater
}

// Service runs the media lifecycle: metadata resolution before the first write,
// thumbnail scheduling after it, and file cleanup after removal.
type Service struct {
	deps ServiceDeps
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(deps ServiceDeps) *Service {
	return &Service{deps: deps, now: time.Now}
}

// Resolver exposes the path resolver used for URLs.
func (s *Service) Resolver() *media.PathResolver {
	return s.deps.Resolver
}

// Create resolves the reference with its provider, stores the media and schedules thumbnails.
func (s *Service) Create(ctx context.Context, req CreateRequest) (_ media.Media, err error) {
	ctx, span := logging.StartSpan(ctx, "media.create", "provider", req.Provider)
	defer func() {
		span.Fail(err)
		span.End()
	}()
	logger := logging.FromContext(ctx)

	provider, err := s.deps.Providers.Get(strings.TrimSpace(req.Provider))
	if err != nil {
		return media.Media{}, err
	}

	reference, err := provider.ParseReference(req.Reference)
	if err != nil {
		return media.Media{}, err
	}

	start := time.Now()
	metadata, err := provider.Fetch(ctx, reference)
	metrics.RecordMetadataFetch(provider.Name(), time.Since(start), err)
	if err != nil {
		return media.Media{}, fmt.Errorf("%w: %w", ErrMetadataFetch, err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = metadata.Title()
	}
	if name == "" {
		name = reference
	}

	now := s.now().UTC()
	m := media.Media{
		Name:              name,
		ProviderName:      provider.Name(),
		ProviderReference: reference,
		ProviderMetadata:  metadata,
		ProviderStatus:    media.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	needsThumbnails := s.deps.Resolver.RequiresThumbnails(m)
	if !needsThumbnails {
		m.ProviderStatus = media.StatusReady
	}

	id, err := s.deps.Store.Create(ctx, m)
	if err != nil {
		return media.Media{}, err
	}
	m.SetID(id)
	logger.Info("media created", "mediaId", id, "provider", m.ProviderName, "reference", reference)

	if needsThumbnails {
		if err := s.enqueue(ctx, m); err != nil {
			logger.Error("schedule thumbnails", "mediaId", id, "error", err)
			m.ProviderStatus = media.StatusFailed
		}
	}

	return m, nil
}

func (s *Service) enqueue(ctx context.Context, m media.Media) error {
	if s.deps.Queue == nil {
		return errors.New("no thumbnail queue configured")
	}
	if err := s.deps.Queue.Enqueue(ctx, m); err != nil {
		if s.deps.Updater != nil {
			id, _ := m.Identity()
			if markErr := s.deps.Updater.MarkThumbnailsFailed(ctx, id); markErr != nil {
				return errors.Join(err, markErr)
			}
		}
		return err
	}
	return nil
}

// Get returns a stored media item.
func (s *Service) Get(ctx context.Context, id int64) (media.Media, error) {
	return s.deps.Store.Get(ctx, id)
}

// List returns the most recent media items.
func (s *Service) List(ctx context.Context, limit int) ([]media.Media, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.deps.Store.List(ctx, limit)
}

// URL returns the public URL of one format of a stored media item.
func (s *Service) URL(ctx context.Context, id int64, format string) (string, error) {
	m, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.deps.Resolver.PublicURL(m, format)
}

// Regenerate schedules thumbnail generation again for a stored media item.
func (s *Service) Regenerate(ctx context.Context, id int64) error {
	m, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.deps.Resolver.RequiresThumbnails(m) {
		return ErrThumbnailsNotRequired
	}
	if s.deps.Updater != nil {
		if err := s.deps.Updater.MarkThumbnailsPending(ctx, id); err != nil {
			return fmt.Errorf("reset thumbnail status: %w", err)
		}
	}
	m.ProviderStatus = media.StatusPending
	return s.enqueue(ctx, m)
}

// Remove deletes a media item and every file derived from it.
func (s *Service) Remove(ctx context.Context, id int64) (err error) {
	ctx, span := logging.StartSpan(ctx, "media.remove", "mediaId", id)
	defer func() {
		span.Fail(err)
		span.End()
	}()

	m, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		return err
	}

	paths, err := s.deps.Resolver.PrivatePaths(m)
	if err != nil {
		return err
	}

	if err := s.deps.Store.Delete(ctx, id); err != nil {
		return err
	}

	if s.deps.Storage == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range paths {
		g.Go(func() error {
			if err := s.deps.Storage.Delete(gctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("delete %s: %w", key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("remove media files: %w", err)
	}

	logging.FromContext(ctx).Info("media removed", "mediaId", id, "files", len(paths))
	return nil
}
