package media

import (
	"fmt"
	"strings"
)

// ReferenceResolver returns the URL of the original remote asset for a media item.
type ReferenceResolver interface {
	ReferenceURL(m Media) (string, error)
}

// ThumbnailPolicy decides from provider metadata whether derived thumbnails are needed.
type ThumbnailPolicy func(Metadata) bool

// DefaultThumbnailPolicy honours an explicit "requires_thumbnails" flag, treats oEmbed
// "photo" resources as directly usable, and requires thumbnails for everything else.
func DefaultThumbnailPolicy(metadata Metadata) bool {
	if flag, ok := metadata["requires_thumbnails"].(bool); ok {
		return flag
	}
	return metadata.Type() != "photo"
}

// Bucket maps an ID onto a two level directory: the first segment counts blocks of
// 100000 ids, the second blocks of 1000 inside it. Both are one-based.
// 1023457 -> "0011/24".
func Bucket(id int64) (string, error) {
	if id < 0 {
		return "", ErrInvalidIdentity
	}
	first := id/100000 + 1
	second := (id%100000)/1000 + 1
	return fmt.Sprintf("%04d/%02d", first, second), nil
}

// PathResolver derives storage paths and public URLs for media thumbnails.
// It holds no mutable state and is safe for concurrent use.
type PathResolver struct {
	cdnBasePath string
	formats     *FormatRegistry
	references  ReferenceResolver

	// Policy overrides DefaultThumbnailPolicy when set.
	Policy ThumbnailPolicy
}

// NewPathResolver constructs a resolver publishing under cdnBasePath.
func NewPathResolver(cdnBasePath string, formats *FormatRegistry, references ReferenceResolver) *PathResolver {
	if formats == nil {
		formats = &FormatRegistry{byName: map[string]Format{}}
	}
	return &PathResolver{
		cdnBasePath: strings.TrimSuffix(cdnBasePath, "/"),
		formats:     formats,
		references:  references,
	}
}

// Formats exposes the registry the resolver was built with.
func (r *PathResolver) Formats() *FormatRegistry {
	return r.formats
}

// GeneratePath returns the bucket directory of m.
func (r *PathResolver) GeneratePath(m Media) (string, error) {
	id, err := m.Identity()
	if err != nil {
		return "", err
	}
	return Bucket(id)
}

// PublicURL returns the CDN URL of the given format, or the provider's own URL for the
// reference format.
func (r *PathResolver) PublicURL(m Media, format string) (string, error) {
	if format == ReferenceFormat {
		if r.references == nil {
			return "", fmt.Errorf("resolve reference url: no reference resolver configured")
		}
		return r.references.ReferenceURL(m)
	}

	private, err := r.PrivatePath(m, format)
	if err != nil {
		return "", err
	}
	return r.cdnBasePath + "/" + private, nil
}

// PrivatePath returns the storage key of the given format, relative to the storage root.
func (r *PathResolver) PrivatePath(m Media, format string) (string, error) {
	if format != ReferenceFormat {
		if _, ok := r.formats.Get(format); !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
		}
	}

	id, err := m.Identity()
	if err != nil {
		return "", err
	}
	bucket, err := Bucket(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/thumb_%d_%s.jpg", bucket, id, format), nil
}

// PrivatePaths lists every storage key owned by m: the stored reference image first,
// then one per registered format.
func (r *PathResolver) PrivatePaths(m Media) ([]string, error) {
	names := append([]string{ReferenceFormat}, r.formats.Names()...)
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p, err := r.PrivatePath(m, name)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Thumbnails returns the public URL of every registered format plus the reference.
func (r *PathResolver) Thumbnails(m Media) (map[string]string, error) {
	urls := make(map[string]string, r.formats.Len()+1)
	for _, name := range r.formats.Names() {
		u, err := r.PublicURL(m, name)
		if err != nil {
			return nil, err
		}
		urls[name] = u
	}
	if r.references != nil {
		ref, err := r.references.ReferenceURL(m)
		if err != nil {
			return nil, err
		}
		urls[ReferenceFormat] = ref
	}
	return urls, nil
}

// RequiresThumbnails reports whether m needs generated preview images.
func (r *PathResolver) RequiresThumbnails(m Media) bool {
	if r.Policy != nil {
		return r.Policy(m.ProviderMetadata)
	}
	return DefaultThumbnailPolicy(m.ProviderMetadata)
}
