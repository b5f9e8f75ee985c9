package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediabundle/backend/internal/media"
)

func newSQLiteRepo(t *testing.T) *SQLiteMediaRepository {
	t.Helper()
	db, err := OpenSQLite(SQLiteScheme + filepath.Join(t.TempDir(), "media.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSQLiteMediaRepository(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, repo.EnsureSchema(context.Background()), "schema creation must be idempotent")
	return repo
}

func sampleMedia(reference string, created time.Time) media.Media {
	return media.Media{
		Name:              "Sintel",
		ProviderName:      "vimeo",
		ProviderReference: reference,
		ProviderMetadata: media.Metadata{
			"type":          "video",
			"title":         "Sintel",
			"thumbnail_url": "https://i.vimeocdn.com/video/1.jpg",
			"width":         float64(640),
		},
		ProviderStatus: media.StatusPending,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestSQLiteMediaRepository_CreateGetAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)

	id, err := repo.Create(ctx, sampleMedia("1084537", created))
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)

	gotID, err := got.Identity()
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, "Sintel", got.Name)
	assert.Equal(t, "vimeo", got.ProviderName)
	assert.Equal(t, "1084537", got.ProviderReference)
	assert.Equal(t, media.StatusPending, got.ProviderStatus)
	assert.Equal(t, "https://i.vimeocdn.com/video/1.jpg", got.ProviderMetadata.ThumbnailURL())
	assert.Equal(t, float64(640), got.ProviderMetadata["width"])
	assert.True(t, created.Equal(got.CreatedAt), "created_at round trip: %v", got.CreatedAt)

	_, err = repo.Create(ctx, sampleMedia("1084537", created))
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, id), ErrNotFound)
}

func TestSQLiteMediaRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, ref := range []string{"1", "2", "3"} {
		_, err := repo.Create(ctx, sampleMedia(ref, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	items, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "3", items[0].ProviderReference)
	assert.Equal(t, "2", items[1].ProviderReference)
}

func TestSQLiteMediaRepository_ThumbnailStatus(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)
	later := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return later }

	id, err := repo.Create(ctx, sampleMedia("1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	require.NoError(t, repo.MarkThumbnailsReady(ctx, id))
	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, media.StatusReady, got.ProviderStatus)
	assert.True(t, later.Equal(got.UpdatedAt))

	require.NoError(t, repo.MarkThumbnailsFailed(ctx, id))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, media.StatusFailed, got.ProviderStatus)

	require.NoError(t, repo.MarkThumbnailsPending(ctx, id))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, media.StatusPending, got.ProviderStatus)

	assert.ErrorIs(t, repo.MarkThumbnailsReady(ctx, id+100), ErrNotFound)
}

func TestOpenSQLiteRejectsEmptyPath(t *testing.T) {
	_, err := OpenSQLite(SQLiteScheme)
	assert.Error(t, err)
}
