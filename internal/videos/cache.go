package videos

import (
	"context"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mediabundle/backend/internal/media"
)

type cacheEntry struct {
	metadata media.Metadata
	expires  time.Time
}

// DefaultFetchTimeout bounds a shared upstream fetch started by the cache.
const DefaultFetchTimeout = 30 * time.Second

// CachingProvider wraps another Provider with a TTL-based in-memory metadata cache.
// Concurrent misses for the same reference share one upstream fetch, which outlives
// the cancellation of any single caller.
type CachingProvider struct {
	Provider
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu     sync.RWMutex
	items  map[string]cacheEntry
	flight singleflight.Group
}

// NewCachingProvider returns a Provider that caches Fetch results for the provided TTL.
func NewCachingProvider(base Provider, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProvider{
		Provider:     base,
		ttl:          ttl,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		items:        make(map[string]cacheEntry),
	}
}

// Fetch returns cached metadata when available, otherwise it delegates to the
// underlying provider and stores the result. Callers receive their own copy.
func (c *CachingProvider) Fetch(ctx context.Context, reference string) (media.Metadata, error) {
	if c == nil || c.Provider == nil {
		return nil, ErrProviderUnavailable
	}

	c.mu.RLock()
	entry, ok := c.items[reference]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expires) {
		return maps.Clone(entry.metadata), nil
	}

	results := c.flight.DoChan(reference, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		metadata, err := c.Provider.Fetch(fetchCtx, reference)
		if err != nil {
			return nil, err
		}
		c.store(reference, metadata)
		return metadata, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return maps.Clone(res.Val.(media.Metadata)), nil
	}
}

func (c *CachingProvider) store(reference string, metadata media.Metadata) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.items {
		if !now.Before(entry.expires) {
			delete(c.items, key)
		}
	}
	c.items[reference] = cacheEntry{metadata: maps.Clone(metadata), expires: now.Add(c.ttl)}
}
