package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mediabundle/backend/internal/db"
	"github.com/mediabundle/backend/internal/media"
)

const uniqueViolation = "23505"

// PostgresMediaRepository provides PostgreSQL-backed persistence for media items.
type PostgresMediaRepository struct {
	pool db.Pool
	now  func() time.Time
}

// NewPostgresMediaRepository constructs a media repository backed by PostgreSQL.
func NewPostgresMediaRepository(pool db.Pool) *PostgresMediaRepository {
	return &PostgresMediaRepository{pool: pool, now: time.Now}
}

// Create persists a new media item and returns its generated identifier.
func (r *PostgresMediaRepository) Create(ctx context.Context, m media.Media) (int64, error) {
	metadata, err := encodeMetadata(m.ProviderMetadata)
	if err != nil {
		return 0, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var id int64
	err = conn.QueryRow(ctx, `
        INSERT INTO media (name, provider_name, provider_reference, provider_metadata, provider_status, created_at, updated_at)
        VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7)
        RETURNING id
    `, m.Name, m.ProviderName, m.ProviderReference, metadata, defaultStatus(m.ProviderStatus), m.CreatedAt, m.UpdatedAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("insert media: %w", err)
	}

	return id, nil
}

// Get fetches a media item by identifier.
func (r *PostgresMediaRepository) Get(ctx context.Context, id int64) (media.Media, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return media.Media{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, name, provider_name, provider_reference, provider_metadata, provider_status, created_at, updated_at
        FROM media
        WHERE id = $1
    `, id)

	m, err := scanPostgresMedia(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return media.Media{}, ErrNotFound
		}
		return media.Media{}, fmt.Errorf("select media: %w", err)
	}
	return m, nil
}

// List returns up to limit media items, newest first.
func (r *PostgresMediaRepository) List(ctx context.Context, limit int) ([]media.Media, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, name, provider_name, provider_reference, provider_metadata, provider_status, created_at, updated_at
        FROM media
        ORDER BY created_at DESC, id DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	defer rows.Close()

	var items []media.Media
	for rows.Next() {
		m, err := scanPostgresMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media: %w", err)
	}

	return items, nil
}

// Delete removes a media item.
func (r *PostgresMediaRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkThumbnailsPending resets the thumbnail status before another generation attempt.
func (r *PostgresMediaRepository) MarkThumbnailsPending(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, media.StatusPending)
}

// MarkThumbnailsReady records that every thumbnail of the media item was generated.
func (r *PostgresMediaRepository) MarkThumbnailsReady(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, media.StatusReady)
}

// MarkThumbnailsFailed records a failed thumbnail generation attempt.
func (r *PostgresMediaRepository) MarkThumbnailsFailed(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, media.StatusFailed)
}

func (r *PostgresMediaRepository) setStatus(ctx context.Context, id int64, status string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE media
        SET provider_status = $2, updated_at = $3
        WHERE id = $1
    `, id, status, r.now().UTC())
	if err != nil {
		return fmt.Errorf("update media status %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPostgresMedia(row pgx.Row) (media.Media, error) {
	var (
		m        media.Media
		id       int64
		metadata []byte
	)
	if err := row.Scan(&id, &m.Name, &m.ProviderName, &m.ProviderReference, &metadata, &m.ProviderStatus, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return media.Media{}, err
	}
	decoded, err := decodeMetadata(metadata)
	if err != nil {
		return media.Media{}, err
	}
	m.SetID(id)
	m.ProviderMetadata = decoded
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return m, nil
}

var _ MediaRepository = (*PostgresMediaRepository)(nil)
