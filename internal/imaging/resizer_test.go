package imaging

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediabundle/backend/internal/media"
	"github.com/mediabundle/backend/internal/storage"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTargetSize(t *testing.T) {
	cases := []struct {
		name         string
		srcW, srcH   int
		format       media.Format
		wantW, wantH int
	}{
		{"free", 1280, 720, media.Format{Width: 200, Height: 100}, 200, 100},
		{"constrainWidthBound", 1280, 720, media.Format{Width: 200, Height: 200, Constrain: true}, 200, 112},
		{"constrainHeightBound", 1280, 720, media.Format{Width: 200, Height: 100, Constrain: true}, 177, 100},
		{"portrait", 300, 600, media.Format{Width: 100, Height: 100, Constrain: true}, 50, 100},
		{"tiny", 10000, 1, media.Format{Width: 10, Height: 10, Constrain: true}, 10, 1},
		{"unknownSource", 0, 0, media.Format{Width: 20, Height: 10, Constrain: true}, 20, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := TargetSize(tc.srcW, tc.srcH, tc.format)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

func TestResizerWritesJPEG(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	resizer := NewResizer(store, 0)
	ctx := context.Background()

	format := media.Format{Name: "big", Width: 200, Height: 100, Constrain: true}
	dest := "0011/24/thumb_1023457_big.jpg"
	require.NoError(t, resizer.Resize(ctx, encodePNG(t, 128, 72), format, dest))

	rc, err := store.Open(ctx, dest)
	require.NoError(t, err)
	defer rc.Close()

	img, err := jpeg.Decode(rc)
	require.NoError(t, err)
	assert.Equal(t, 177, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestResizerRejectsNonImages(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	resizer := NewResizer(store, 90)

	err = resizer.Resize(context.Background(), []byte("<html>not an image</html>"), media.Format{Name: "a", Width: 1, Height: 1}, "x.jpg")
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	err = resizer.Resize(context.Background(), nil, media.Format{Name: "a", Width: 1, Height: 1}, "x.jpg")
	assert.ErrorIs(t, err, ErrEmptySource)

	ok, err := store.Exists(context.Background(), "x.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

// withDeclaredSize rewrites the IHDR dimensions of a PNG without touching its pixel data.
func withDeclaredSize(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte(nil), data...)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestResizerRejectsOversizedImages(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	resizer := NewResizer(store, 90)

	source := withDeclaredSize(t, encodePNG(t, 2, 2), 16000, 16000)
	format := media.Format{Name: "small", Width: 100, Height: 70}

	err = resizer.Resize(context.Background(), source, format, "thumb.jpg")
	assert.ErrorIs(t, err, ErrImageTooLarge)

	ok, err := store.Exists(context.Background(), "thumb.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSniff(t *testing.T) {
	mtype, err := Sniff(encodePNG(t, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mtype)
}

func TestResizerWithoutStorage(t *testing.T) {
	var resizer *Resizer
	assert.Error(t, resizer.Resize(context.Background(), encodePNG(t, 2, 2), media.Format{Name: "a", Width: 1, Height: 1}, "x.jpg"))
}
