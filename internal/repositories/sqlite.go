package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mediabundle/backend/internal/media"
)

// SQLiteScheme prefixes database URLs that select the embedded SQLite store.
const SQLiteScheme = "sqlite://"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS media (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    provider_name TEXT NOT NULL,
    provider_reference TEXT NOT NULL,
    provider_metadata TEXT NOT NULL DEFAULT '{}',
    provider_status TEXT NOT NULL DEFAULT 'pending',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (provider_name, provider_reference)
);
CREATE INDEX IF NOT EXISTS media_created_at_idx ON media (created_at DESC);
`

// SQLiteMediaRepository stores media items in an embedded SQLite database.
type SQLiteMediaRepository struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens the database addressed by a sqlite:// URL or a plain file path.
func OpenSQLite(dsn string) (*sql.DB, error) {
	path := strings.TrimPrefix(dsn, SQLiteScheme)
	if path == "" {
		return nil, errors.New("sqlite database path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteMediaRepository constructs a media repository on top of db.
func NewSQLiteMediaRepository(db *sql.DB) *SQLiteMediaRepository {
	return &SQLiteMediaRepository{db: db, now: time.Now}
}

// EnsureSchema creates the media table when it does not exist yet.
func (r *SQLiteMediaRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return nil
}

// Create persists a new media item and returns its generated identifier.
func (r *SQLiteMediaRepository) Create(ctx context.Context, m media.Media) (int64, error) {
	metadata, err := encodeMetadata(m.ProviderMetadata)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
        INSERT INTO media (name, provider_name, provider_reference, provider_metadata, provider_status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, m.Name, m.ProviderName, m.ProviderReference, metadata, defaultStatus(m.ProviderStatus), formatTime(m.CreatedAt), formatTime(m.UpdatedAt))
	if err != nil {
		if isSQLiteConstraint(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("insert media: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read media id: %w", err)
	}
	return id, nil
}

// Get fetches a media item by identifier.
func (r *SQLiteMediaRepository) Get(ctx context.Context, id int64) (media.Media, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, provider_name, provider_reference, provider_metadata, provider_status, created_at, updated_at
        FROM media
        WHERE id = ?
    `, id)

	m, err := scanSQLiteMedia(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return media.Media{}, ErrNotFound
		}
		return media.Media{}, fmt.Errorf("select media: %w", err)
	}
	return m, nil
}

// List returns up to limit media items, newest first.
func (r *SQLiteMediaRepository) List(ctx context.Context, limit int) ([]media.Media, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, provider_name, provider_reference, provider_metadata, provider_status, created_at, updated_at
        FROM media
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	defer rows.Close()

	var items []media.Media
	for rows.Next() {
		m, err := scanSQLiteMedia(rows)
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
func (r *SQLiteMediaRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return requireAffected(res)
}

// MarkThumbnailsPending resets the thumbnail status before another generation attempt.
func (r *SQLiteMediaRepository) MarkThumbnailsPending(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, media.StatusPending)
}

// MarkThumbnailsReady records that every thumbnail of the media item was generated.
func (r *SQLiteMediaRepository) MarkThumbnailsReady(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, media.StatusReady)
}

// MarkThumbnailsFailed records a failed thumbnail generation attempt.
func (r *SQLiteMediaRepository) MarkThumbnailsFailed(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, media.StatusFailed)
}

func (r *SQLiteMediaRepository) setStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE media
        SET provider_status = ?, updated_at = ?
        WHERE id = ?
    `, status, formatTime(r.now()), id)
	if err != nil {
		return fmt.Errorf("update media status %s: %w", status, err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteMedia(row rowScanner) (media.Media, error) {
	var (
		m                    media.Media
		id                   int64
		metadata             string
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &m.Name, &m.ProviderName, &m.ProviderReference, &metadata, &m.ProviderStatus, &createdAt, &updatedAt); err != nil {
		return media.Media{}, err
	}

	decoded, err := decodeMetadata([]byte(metadata))
	if err != nil {
		return media.Media{}, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return media.Media{}, err
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return media.Media{}, err
	}
	m.SetID(id)
	m.ProviderMetadata = decoded
	return m, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isSQLiteConstraint(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// Timestamps are stored as fixed-width UTC text so lexical order matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}

var _ MediaRepository = (*SQLiteMediaRepository)(nil)
