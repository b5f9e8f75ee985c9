package videos

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

var fastRetry = RetryPolicy{
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
	MaxElapsedTime:  time.Second,
}

const vimeoPayload = `{"type":"video","version":"1.0","provider_name":"Vimeo","title":"Sintel","author_name":"Blender","thumbnail_url":"https://i.vimeocdn.com/video/1.jpg","width":640,"height":272,"video_id":1084537}`

func newTestVimeo(t *testing.T, handler http.HandlerFunc) *VimeoProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider := NewVimeoProvider(server.URL+"/api/oembed.json", time.Second)
	provider.Retry = fastRetry
	return provider
}

func TestVimeoProviderFetch(t *testing.T) {
	provider := newTestVimeo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/oembed.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("url"); got != "http://vimeo.com/1084537" {
			t.Errorf("unexpected url query %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(vimeoPayload))
	})

	meta, err := provider.Fetch(context.Background(), "1084537")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if meta.Title() != "Sintel" {
		t.Fatalf("unexpected title %q", meta.Title())
	}
	if meta.String("video_id") != "1084537" {
		t.Fatalf("unexpected video id %q", meta.String("video_id"))
	}

	ref, err := provider.ReferenceURL(meta)
	if err != nil {
		t.Fatalf("reference url: %v", err)
	}
	if ref != "https://i.vimeocdn.com/video/1.jpg" {
		t.Fatalf("unexpected reference url %q", ref)
	}
	if got := provider.AbsoluteURL("1084537"); got != "http://www.vimeo.com/1084537" {
		t.Fatalf("unexpected absolute url %q", got)
	}
}

func TestVimeoProviderRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	provider := newTestVimeo(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(vimeoPayload))
	})

	if _, err := provider.Fetch(context.Background(), "1084537"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if attempts.Load() != 3 {
		t.Fatalf("expected 3 attempts got %d", attempts.Load())
	}
}

func TestVimeoProviderNotFoundIsPermanent(t *testing.T) {
	var attempts atomic.Int32
	provider := newTestVimeo(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.NotFound(w, r)
	})

	_, err := provider.Fetch(context.Background(), "404")
	if !errors.Is(err, ErrRemoteNotFound) {
		t.Fatalf("expected remote not found got %v", err)
	}
	if attempts.Load() != 1 {
		t.Fatalf("404 must not be retried, got %d attempts", attempts.Load())
	}
}

func TestVimeoProviderUnexpectedStatus(t *testing.T) {
	provider := newTestVimeo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := provider.Fetch(context.Background(), "1")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error got %v", err)
	}
	if statusErr.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected status %d", statusErr.StatusCode)
	}
}

func TestVimeoProviderEmptyAndOversizedResponses(t *testing.T) {
	provider := newTestVimeo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	if _, err := provider.Fetch(context.Background(), "1"); !errors.Is(err, ErrEmptyMetadata) {
		t.Fatalf("expected empty metadata got %v", err)
	}

	provider = newTestVimeo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(vimeoPayload))
	})
	provider.MaxBytes = 16
	if _, err := provider.Fetch(context.Background(), "1"); !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("expected response too large got %v", err)
	}
}

func TestVimeoProviderParseReference(t *testing.T) {
	provider := NewVimeoProvider("", 0)
	if provider.Endpoint != DefaultVimeoOEmbedURL {
		t.Fatalf("expected default endpoint got %q", provider.Endpoint)
	}

	valid := map[string]string{
		"1084537":                             "1084537",
		" 1084537 ":                           "1084537",
		"https://vimeo.com/1084537":           "1084537",
		"https://player.vimeo.com/video/1234": "1234",
		"http://www.vimeo.com/channels/x/99/": "99",
	}
	for input, want := range valid {
		got, err := provider.ParseReference(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: want %q got %q", input, want, got)
		}
	}

	for _, input := range []string{"", "abc", "https://example.com/1234", "https://vimeo.com/about"} {
		if _, err := provider.ParseReference(input); !errors.Is(err, ErrInvalidReference) {
			t.Fatalf("expected invalid reference for %q got %v", input, err)
		}
	}

	if _, err := provider.Fetch(context.Background(), "not-digits"); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected invalid reference got %v", err)
	}
}

func TestDownloaderSingleAttemptPolicy(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	downloader := NewDownloader(time.Second)
	downloader.Retry = RetryPolicy{}

	_, err := downloader.Download(context.Background(), server.URL+"/image.jpg")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 status error got %v", err)
	}
	if attempts.Load() != 1 {
		t.Fatalf("expected a single attempt got %d", attempts.Load())
	}
}

func TestDownloaderReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	downloader := NewDownloader(time.Second)
	downloader.Retry = fastRetry

	data, err := downloader.Download(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("unexpected body %q", data)
	}
}
