package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mediabundle/backend/internal/config"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := "0011/24/thumb_1023457_big.jpg"

	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	location, err := store.Save(ctx, key, strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Root(), "0011", "24", "thumb_1023457_big.jpg"), location)

	ok, err = store.Exists(ctx, "/"+key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageOverwrite(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Save(ctx, "a/b.jpg", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = store.Save(ctx, "a/b.jpg", strings.NewReader("two"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(store.Root(), "a", "b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Join(store.Root(), "a"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary upload files must not be left behind")
}

func TestLocalStorageRejectsInvalidKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "  ", "../escape.jpg", "a/../../escape.jpg"} {
		_, err := store.Save(ctx, key, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalStorageCanceledContext(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Save(ctx, "a.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	store, err := New(context.Background(), config.ObjectStoreConfig{Backend: "local", LocalPath: dir})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)

	_, err = New(context.Background(), config.ObjectStoreConfig{Backend: "ftp"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.ObjectStoreConfig{Backend: "s3"})
	assert.Error(t, err, "bucket is required")
}

func TestNewS3Storage(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	store, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{
		Bucket:        "media",
		Region:        "us-east-1",
		Endpoint:      "http://localhost:9000",
		PublicBaseURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com", store.baseURL)

	_, err = store.Save(context.Background(), "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&s3types.NoSuchKey{}))
	assert.True(t, isNotFound(&s3types.NotFound{}))
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("boom")))
}
