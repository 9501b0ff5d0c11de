package recent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"bookfinder/internal/platform/openlibrary"
)

// Entry is the cached feed of one browsing session.
type Entry struct {
	Books      []openlibrary.BookSummary `json:"books"`
	CapturedAt time.Time                 `json:"captured_at"`
}

// Store persists one Entry per session. Get returns nil, nil on a miss. Put
// replaces the whole entry.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Entry, error)
	Put(ctx context.Context, sessionID string, e Entry) error
	Delete(ctx context.Context, sessionID string) error
}

func encodeEntry(e Entry) ([]byte, error) {
	if e.Books == nil {
		e.Books = []openlibrary.BookSummary{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode recent entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode recent entry: %w", err)
	}
	return &e, nil
}

// MemoryStore keeps serialized entries in process memory. Entries are copied
// through the codec so callers never share slices with the cache.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Entry, error) {
	s.mu.RLock()
	data, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeEntry(data)
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, e Entry) error {
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[sessionID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
	return nil
}

// Len reports the number of sessions with an entry.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
