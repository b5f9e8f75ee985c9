package media

import (
	"context"
	"errors"
)

// Resizer renders source into format and stores the result under destination.
type Resizer interface {
	Resize(ctx context.Context, source []byte, format Format, destination string) error
}

// ThumbnailGenerator drives a Resizer over every registered format.
type ThumbnailGenerator struct {
	resolver *PathResolver
	resizer  Resizer
}

// NewThumbnailGenerator constructs a generator for the resolver's formats.
func NewThumbnailGenerator(resolver *PathResolver, resizer Resizer) *ThumbnailGenerator {
	return &ThumbnailGenerator{resolver: resolver, resizer: resizer}
}

// Generate resizes source once per registered format, in registration order. The first
// failing format aborts the run with a *ThumbnailError.
func (g *ThumbnailGenerator) Generate(ctx context.Context, m Media, source []byte) error {
	if g == nil || g.resolver == nil || g.resizer == nil {
		return errors.New("thumbnail generator is not configured")
	}
	if _, err := m.Identity(); err != nil {
		return err
	}

	for _, format := range g.resolver.Formats().All() {
		if err := ctx.Err(); err != nil {
			return &ThumbnailError{Format: format.Name, Err: err}
		}

		destination, err := g.resolver.PrivatePath(m, format.Name)
		if err != nil {
			return &ThumbnailError{Format: format.Name, Err: err}
		}
		if err := g.resizer.Resize(ctx, source, format, destination); err != nil {
			return &ThumbnailError{Format: format.Name, Err: err}
		}
	}
	return nil
}
