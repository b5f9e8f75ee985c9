package media

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentity indicates a path was requested for media without a usable ID.
	ErrInvalidIdentity = errors.New("media identity is missing or negative")
	// ErrUnknownFormat indicates the requested format is neither registered nor the reference format.
	ErrUnknownFormat = errors.New("unknown media format")
	// ErrInvalidFormat indicates a format definition was rejected during registration.
	ErrInvalidFormat = errors.New("invalid media format")
	// ErrThumbnailGenerationFailed matches every *ThumbnailError.
	ErrThumbnailGenerationFailed = errors.New("thumbnail generation failed")
)

// ThumbnailError reports the format whose resize failed.
type ThumbnailError struct {
	Format string
	Err    error
}

func (e *ThumbnailError) Error() string {
	return fmt.Sprintf("generate thumbnail %q: %v", e.Format, e.Err)
}

func (e *ThumbnailError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrThumbnailGenerationFailed.
func (e *ThumbnailError) Is(target error) bool {
	return target == ErrThumbnailGenerationFailed
}
