package videos

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable indicates the metadata provider is not configured.
	ErrProviderUnavailable = errors.New("video metadata provider unavailable")
	// ErrUnknownProvider indicates no provider is registered under the requested name.
	ErrUnknownProvider = errors.New("unknown video provider")
	// ErrInvalidReference indicates the supplied video reference cannot be used by the provider.
	ErrInvalidReference = errors.New("invalid video reference")
	// ErrEmptyMetadata indicates the provider answered without any usable metadata.
	ErrEmptyMetadata = errors.New("provider returned empty metadata")
	// ErrNoReferenceImage indicates the metadata carries no preview image to derive thumbnails from.
	ErrNoReferenceImage = errors.New("metadata has no reference image")
	// ErrRemoteNotFound indicates the remote service does not know the requested resource.
	ErrRemoteNotFound = errors.New("remote resource not found")
	// ErrResponseTooLarge indicates a remote response exceeded the configured size limit.
	ErrResponseTooLarge = errors.New("remote response too large")
	// ErrMetadataFetch wraps any failure to resolve provider metadata while creating media.
	ErrMetadataFetch = errors.New("fetch provider metadata")
	// ErrThumbnailsNotRequired indicates the media item does not use generated thumbnails.
	ErrThumbnailsNotRequired = errors.New("media does not require thumbnails")
)

// StatusError reports an unexpected HTTP status from a remote service.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
