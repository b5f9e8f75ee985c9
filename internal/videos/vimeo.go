package videos

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/mediabundle/backend/internal/media"
)

// VimeoProviderName is stored on media created from Vimeo references.
const VimeoProviderName = "vimeo"

// DefaultVimeoOEmbedURL is Vimeo's public oEmbed endpoint.
const DefaultVimeoOEmbedURL = "http://vimeo.com/api/oembed.json"

// VimeoProvider resolves Vimeo video ids through the oEmbed API.
type VimeoProvider struct {
	Endpoint string
	Client   HTTPClient
	Retry    RetryPolicy
	MaxBytes int64
}

// NewVimeoProvider constructs a provider querying endpoint with the given request timeout.
func NewVimeoProvider(endpoint string, timeout time.Duration) *VimeoProvider {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultVimeoOEmbedURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &VimeoProvider{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
		Retry:    DefaultRetryPolicy,
		MaxBytes: 1 << 20,
	}
}

// Name implements Provider.
func (p *VimeoProvider) Name() string {
	return VimeoProviderName
}

// ParseReference accepts a numeric video id or a vimeo.com URL ending in one.
func (p *VimeoProvider) ParseReference(input string) (string, error) {
	input = strings.TrimSpace(input)
	if isDigits(input) {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidReference, input)
	}
	host := strings.ToLower(u.Hostname())
	if host != "vimeo.com" && !strings.HasSuffix(host, ".vimeo.com") {
		return "", fmt.Errorf("%w: %q is not a vimeo url", ErrInvalidReference, input)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if !isDigits(last) {
		return "", fmt.Errorf("%w: no video id in %q", ErrInvalidReference, input)
	}
	return last, nil
}

// Fetch requests the oEmbed document of a video id.
func (p *VimeoProvider) Fetch(ctx context.Context, reference string) (media.Metadata, error) {
	if p == nil {
		return nil, ErrProviderUnavailable
	}
	if !isDigits(reference) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReference, reference)
	}

	endpoint, err := url.Parse(p.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse oembed endpoint: %w", err)
	}
	query := endpoint.Query()
	query.Set("url", "http://vimeo.com/"+reference)
	endpoint.RawQuery = query.Encode()

	body, err := getWithRetry(ctx, p.Client, endpoint.String(), p.Retry, p.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("vimeo oembed %s: %w", reference, err)
	}

	var metadata media.Metadata
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("parse vimeo oembed response: %w", err)
	}
	if len(metadata) == 0 {
		return nil, ErrEmptyMetadata
	}
	return metadata, nil
}

// ReferenceURL implements Provider.
func (p *VimeoProvider) ReferenceURL(metadata media.Metadata) (string, error) {
	return thumbnailReference(metadata)
}

// AbsoluteURL implements Provider.
func (p *VimeoProvider) AbsoluteURL(reference string) string {
	return "http://www.vimeo.com/" + reference
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var _ Provider = (*VimeoProvider)(nil)
