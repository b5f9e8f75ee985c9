package videos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/mediabundle/backend/internal/media"
	"github.com/mediabundle/backend/internal/storage"
)

type stubProvider struct {
	name     string
	metadata media.Metadata
	err      error

	mu    sync.Mutex
	calls int
}

func (s *stubProvider) Name() string {
	if s.name == "" {
		return "stub"
	}
	return s.name
}

func (s *stubProvider) ParseReference(input string) (string, error) {
	if input == "" {
		return "", ErrInvalidReference
	}
	return input, nil
}

func (s *stubProvider) Fetch(context.Context, string) (media.Metadata, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.metadata, nil
}

func (s *stubProvider) ReferenceURL(metadata media.Metadata) (string, error) {
	return thumbnailReference(metadata)
}

func (s *stubProvider) AbsoluteURL(reference string) string {
	return "https://stub.example.com/" + reference
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type memoryStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	saveErr   error
	deleteErr error
}

func (s *memoryStorage) Save(_ context.Context, key string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (s *memoryStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
}

func (s *memoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *memoryStorage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memoryStorage) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *memoryStorage) deletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := append([]string(nil), s.deleted...)
	sort.Strings(keys)
	return keys
}

type statusUpdaterStub struct {
	mu      sync.Mutex
	pending []int64
	ready   []int64
	failed  []int64
	err     error
	store   *mediaStoreStub
}

func (s *statusUpdaterStub) MarkThumbnailsPending(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, id)
	s.store.setStatus(id, media.StatusPending)
	return nil
}

func (s *statusUpdaterStub) MarkThumbnailsReady(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = append(s.ready, id)
	if s.err == nil {
		s.store.setStatus(id, media.StatusReady)
	}
	return s.err
}

func (s *statusUpdaterStub) MarkThumbnailsFailed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, id)
	s.store.setStatus(id, media.StatusFailed)
	return nil
}

func (s *statusUpdaterStub) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ready), len(s.failed)
}

type downloaderStub struct {
	data []byte
	err  error
	urls []string
	mu   sync.Mutex
}

func (d *downloaderStub) Download(_ context.Context, url string) ([]byte, error) {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return d.data, nil
}

type resizerStub struct {
	mu           sync.Mutex
	destinations []string
	err          error
}

func (r *resizerStub) Resize(_ context.Context, _ []byte, _ media.Format, destination string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destinations = append(r.destinations, destination)
	return r.err
}

type mediaStoreStub struct {
	mu      sync.Mutex
	nextID  int64
	items   map[int64]media.Media
	created []media.Media
	err     error
}

var errStoreNotFound = errors.New("media not found")

func (s *mediaStoreStub) Create(_ context.Context, m media.Media) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if s.items == nil {
		s.items = make(map[int64]media.Media)
	}
	s.nextID++
	m.SetID(s.nextID)
	s.items[s.nextID] = m
	s.created = append(s.created, m)
	return s.nextID, nil
}

func (s *mediaStoreStub) Get(_ context.Context, id int64) (media.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.items[id]
	if !ok {
		return media.Media{}, errStoreNotFound
	}
	return m, nil
}

func (s *mediaStoreStub) List(_ context.Context, limit int) ([]media.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]media.Media, 0, len(s.items))
	for id := s.nextID; id > 0 && len(out) < limit; id-- {
		if m, ok := s.items[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *mediaStoreStub) setStatus(id int64, status string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.items[id]; ok {
		m.ProviderStatus = status
		s.items[id] = m
	}
}

func (s *mediaStoreStub) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return errStoreNotFound
	}
	delete(s.items, id)
	return nil
}

type queueStub struct {
	mu     sync.Mutex
	queued []media.Media
	err    error
}

func (q *queueStub) Enqueue(_ context.Context, m media.Media) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.queued = append(q.queued, m)
	return nil
}

func testFormats(t *testing.T) *media.FormatRegistry {
	t.Helper()
	formats, err := media.NewFormatRegistry(
		media.Format{Name: "big", Width: 500, Height: 300, Constrain: true},
		media.Format{Name: "small", Width: 100, Height: 70, Constrain: true},
	)
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	return formats
}

func waitForCondition(t *testing.T, predicate func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if predicate() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
