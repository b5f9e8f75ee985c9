// Package imaging renders thumbnail formats from a source image.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/mediabundle/backend/internal/media"
	"github.com/mediabundle/backend/internal/storage"
)

const (
	// DefaultQuality is the JPEG quality used when none is configured.
	DefaultQuality = 85
	// MaxSourcePixels bounds the decoded size of a source image.
	MaxSourcePixels = 40_000_000
)

var (
	// ErrEmptySource indicates no image bytes were supplied.
	ErrEmptySource = errors.New("empty image source")
	// ErrUnsupportedImage indicates the source bytes are not an image.
	ErrUnsupportedImage = errors.New("unsupported image content")
	// ErrImageTooLarge indicates the source declares more pixels than MaxSourcePixels.
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// Sniff returns the MIME type of data and fails unless it is an image.
func Sniff(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptySource
	}
	mtype := mimetype.Detect(data).String()
	if !strings.HasPrefix(mtype, "image/") {
		return mtype, fmt.Errorf("%w: %s", ErrUnsupportedImage, mtype)
	}
	return mtype, nil
}

// Resizer implements media.Resizer by scaling with x/image/draw and writing JPEGs to storage.
type Resizer struct {
	storage storage.Storage
	quality int
	scaler  draw.Scaler
}

// NewResizer returns a Resizer writing into store with the given JPEG quality.
func NewResizer(store storage.Storage, quality int) *Resizer {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Resizer{storage: store, quality: quality, scaler: draw.CatmullRom}
}

// Resize renders source at format's size and saves it under destination.
func (r *Resizer) Resize(ctx context.Context, source []byte, format media.Format, destination string) error {
	if r == nil || r.storage == nil {
		return fmt.Errorf("resize %s: no storage configured", destination)
	}

	data, err := Render(source, format, r.quality, r.scaler)
	if err != nil {
		return err
	}

	if _, err := r.storage.Save(ctx, destination, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("store thumbnail %s: %w", destination, err)
	}
	return nil
}

// Render decodes source and encodes it as a JPEG scaled to format.
func Render(source []byte, format media.Format, quality int, scaler draw.Scaler) ([]byte, error) {
	if _, err := Sniff(source); err != nil {
		return nil, err
	}
	if scaler == nil {
		scaler = draw.CatmullRom
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := TargetSize(bounds.Dx(), bounds.Dy(), format)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	scaler.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// TargetSize returns the output dimensions for a source of srcW x srcH. Constrained
// formats keep the source aspect ratio and fit inside the format's box; the others are
// stretched to the exact box.
func TargetSize(srcW, srcH int, format media.Format) (int, int) {
	if !format.Constrain || srcW <= 0 || srcH <= 0 {
		return format.Width, format.Height
	}

	width := format.Width
	height := int(float64(srcH) * float64(width) / float64(srcW))
	if height > format.Height {
		height = format.Height
		width = int(float64(srcW) * float64(height) / float64(srcH))
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

var _ media.Resizer = (*Resizer)(nil)
