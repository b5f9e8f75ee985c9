package videos

import (
	"context"
	"fmt"
	"sort"

	"github.com/mediabundle/backend/internal/media"
)

// Provider adapts a remote video service to the media model.
type Provider interface {
	// Name is the key stored in media.Media.ProviderName.
	Name() string
	// ParseReference extracts the provider reference from user input, e.g. a URL.
	ParseReference(input string) (string, error)
	// Fetch resolves the metadata document for a reference.
	Fetch(ctx context.Context, reference string) (media.Metadata, error)
	// ReferenceURL returns the provider-hosted original preview image.
	ReferenceURL(metadata media.Metadata) (string, error)
	// AbsoluteURL returns the public page of the video.
	AbsoluteURL(reference string) string
}

// Pool looks providers up by name.
type Pool struct {
	providers map[string]Provider
}

// NewPool registers providers under their names. Later registrations win.
func NewPool(providers ...Provider) *Pool {
	p := &Pool{providers: make(map[string]Provider, len(providers))}
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		p.providers[provider.Name()] = provider
	}
	return p
}

// Get returns the provider registered under name.
func (p *Pool) Get(name string) (Provider, error) {
	if p == nil {
		return nil, ErrProviderUnavailable
	}
	provider, ok := p.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return provider, nil
}

// Names lists the registered provider names in lexical order.
func (p *Pool) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.providers))
	for name := range p.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReferenceURL implements media.ReferenceResolver using the media's own provider.
func (p *Pool) ReferenceURL(m media.Media) (string, error) {
	provider, err := p.Get(m.ProviderName)
	if err != nil {
		return "", err
	}
	return provider.ReferenceURL(m.ProviderMetadata)
}

// AbsoluteURL returns the public page of m on its provider.
func (p *Pool) AbsoluteURL(m media.Media) (string, error) {
	provider, err := p.Get(m.ProviderName)
	if err != nil {
		return "", err
	}
	return provider.AbsoluteURL(m.ProviderReference), nil
}

func thumbnailReference(metadata media.Metadata) (string, error) {
	ref := metadata.ThumbnailURL()
	if ref == "" {
		return "", ErrNoReferenceImage
	}
	return ref, nil
}

var _ media.ReferenceResolver = (*Pool)(nil)
