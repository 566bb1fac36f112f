package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/neomorfeo/rentwise/internal/domain"
)

var (
	_ domain.FileStorage = (*Storage)(nil)
	_ domain.ViewCounter = (*ViewCounter)(nil)
)

// Storage keeps uploaded files in memory.
type Storage struct {
	mu      sync.RWMutex
	baseURL string
	files   map[string]storedFile
	// FailDelete makes Delete return an error, to exercise best-effort cleanup.
	FailDelete bool
}

type storedFile struct {
	data        []byte
	contentType string
}

// NewStorage returns an empty store serving URLs under baseURL.
func NewStorage(baseURL string) *Storage {
	return &Storage{baseURL: baseURL, files: make(map[string]storedFile)}
}

func (s *Storage) Upload(_ context.Context, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("reading upload %s: %w", key, err)
	}
	s.mu.Lock()
	s.files[key] = storedFile{data: data, contentType: contentType}
	s.mu.Unlock()
	return s.baseURL + "/" + key, nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete {
		return fmt.Errorf("deleting %s: storage unavailable", key)
	}
	delete(s.files, key)
	return nil
}

func (s *Storage) URL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.files[key]; !ok {
		return "", &domain.NotFoundError{Entity: "file", ID: key}
	}
	return s.baseURL + "/" + key, nil
}

// Download writes the stored file to w and returns its content type.
func (s *Storage) Download(_ context.Context, key string, w io.Writer) (string, error) {
	s.mu.RLock()
	f, ok := s.files[key]
	s.mu.RUnlock()
	if !ok {
		return "", &domain.NotFoundError{Entity: "file", ID: key}
	}
	if _, err := w.Write(f.data); err != nil {
		return "", fmt.Errorf("writing %s: %w", key, err)
	}
	return f.contentType, nil
}

// Has reports whether key is stored.
func (s *Storage) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[key]
	return ok
}

// ViewCounter counts listing views in memory.
type ViewCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewViewCounter() *ViewCounter {
	return &ViewCounter{counts: make(map[string]int64)}
}

func (c *ViewCounter) IncrementViews(_ context.Context, listingID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[listingID]++
	return c.counts[listingID], nil
}

func (c *ViewCounter) Views(_ context.Context, listingID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[listingID], nil
}
