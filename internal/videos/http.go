package videos

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// HTTPClient is the subset of *http.Client used for remote calls.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryPolicy bounds the exponential backoff applied to remote GETs.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy retries transient failures for up to ten seconds.
var DefaultRetryPolicy = RetryPolicy{
	InitialInterval: 250 * time.Millisecond,
	MaxInterval:     2 * time.Second,
	MaxElapsedTime:  10 * time.Second,
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5
	if p.MaxElapsedTime <= 0 {
		// zero policy: single attempt
		return backoff.WithContext(backoff.WithMaxRetries(b, 0), ctx)
	}
	b.MaxElapsedTime = p.MaxElapsedTime
	return backoff.WithContext(b, ctx)
}

// getWithRetry performs a GET and returns the body. Network errors, 429 and 5xx are
// retried; any other non-200 status is permanent.
func getWithRetry(ctx context.Context, client HTTPClient, url string, policy RetryPolicy, maxBytes int64) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("perform request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrRemoteNotFound, url))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &StatusError{URL: url, StatusCode: resp.StatusCode}
		default:
			return backoff.Permanent(&StatusError{URL: url, StatusCode: resp.StatusCode})
		}

		reader := io.Reader(resp.Body)
		if maxBytes > 0 {
			reader = io.LimitReader(resp.Body, maxBytes+1)
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}
		if maxBytes > 0 && int64(len(data)) > maxBytes {
			return backoff.Permanent(fmt.Errorf("%w: %s exceeds %d bytes", ErrResponseTooLarge, url, maxBytes))
		}
		body = data
		return nil
	}

	if err := backoff.Retry(operation, policy.backOff(ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// Downloader fetches remote reference images.
type Downloader struct {
	Client   HTTPClient
	Retry    RetryPolicy
	MaxBytes int64
}

// NewDownloader returns a Downloader with a bounded client timeout and a 20 MiB body limit.
func NewDownloader(timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Downloader{
		Client:   &http.Client{Timeout: timeout},
		Retry:    DefaultRetryPolicy,
		MaxBytes: 20 << 20,
	}
}

// Download returns the body served at url.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	data, err := getWithRetry(ctx, d.Client, url, d.Retry, d.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	return data, nil
}
