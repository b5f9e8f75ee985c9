package videos

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/mediabundle/backend/internal/media"
)

// YTDLPProviderName is stored on media resolved through yt-dlp.
const YTDLPProviderName = "ytdlp"

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// YTDLPProvider fetches metadata using the yt-dlp CLI tool. References are full page URLs.
type YTDLPProvider struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewYTDLPProvider constructs a Provider that shells out to yt-dlp.
func NewYTDLPProvider(binary string, timeout time.Duration) *YTDLPProvider {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YTDLPProvider{
		Binary:  binary,
		Args:    []string{"--dump-single-json", "--no-warnings", "--no-playlist", "--skip-download"},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Name implements Provider.
func (p *YTDLPProvider) Name() string {
	return YTDLPProviderName
}

// ParseReference requires an absolute http(s) URL.
func (p *YTDLPProvider) ParseReference(input string) (string, error) {
	input = strings.TrimSpace(input)
	u, err := url.Parse(input)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", ErrInvalidReference, input)
	}
	return u.String(), nil
}

// Fetch executes yt-dlp for the provided URL and maps the JSON response onto an
// oEmbed-shaped metadata document.
func (p *YTDLPProvider) Fetch(ctx context.Context, reference string) (media.Metadata, error) {
	if p == nil {
		return nil, ErrProviderUnavailable
	}
	if p.Run == nil {
		p.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := append([]string{}, p.Args...)
	args = append(args, reference)

	out, err := p.Run(execCtx, p.Binary, args...)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp fetch: %w", err)
	}

	var payload struct {
		ID           string  `json:"id"`
		Title        string  `json:"title"`
		Description  string  `json:"description"`
		Thumbnail    string  `json:"thumbnail"`
		Uploader     string  `json:"uploader"`
		UploaderURL  string  `json:"uploader_url"`
		ExtractorKey string  `json:"extractor_key"`
		Duration     float64 `json:"duration"`
		Width        int     `json:"width"`
		Height       int     `json:"height"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("parse yt-dlp response: %w", err)
	}

	if payload.Title == "" && payload.Description == "" && payload.Thumbnail == "" {
		return nil, ErrEmptyMetadata
	}

	metadata := media.Metadata{
		"type":          "video",
		"version":       "1.0",
		"provider_name": payload.ExtractorKey,
		"title":         payload.Title,
		"description":   payload.Description,
		"thumbnail_url": payload.Thumbnail,
		"author_name":   payload.Uploader,
		"author_url":    payload.UploaderURL,
		"video_id":      payload.ID,
	}
	if payload.Duration > 0 {
		metadata["duration"] = payload.Duration
	}
	if payload.Width > 0 && payload.Height > 0 {
		metadata["width"] = float64(payload.Width)
		metadata["height"] = float64(payload.Height)
	}
	return metadata, nil
}

// ReferenceURL implements Provider.
func (p *YTDLPProvider) ReferenceURL(metadata media.Metadata) (string, error) {
	return thumbnailReference(metadata)
}

// AbsoluteURL implements Provider. The reference already is the page URL.
func (p *YTDLPProvider) AbsoluteURL(reference string) string {
	return reference
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}

var _ Provider = (*YTDLPProvider)(nil)
