package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/opengamedata/ogdviz/payload"
)

// Entry is one cached payload.
type Entry struct {
	Key       string
	Payload   payload.Raw
	FetchedAt time.Time
}

// EntryInfo describes an entry without carrying its payload.
type EntryInfo struct {
	Key       string    `json:"key" yaml:"key"`
	Size      int       `json:"size" yaml:"size"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// Store persists entries by key. Implementations must be safe for concurrent use.
type Store interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, e Entry) error
	Clear(ctx context.Context) error
	List(ctx context.Context) ([]EntryInfo, error)
	Close() error
}

// MemoryStore keeps entries in a map for the life of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Load(_ context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	e.Payload = append(payload.Raw(nil), e.Payload...)
	return e, true, nil
}

func (s *MemoryStore) Save(_ context.Context, e Entry) error {
	e.Payload = append(payload.Raw(nil), e.Payload...)
	s.mu.Lock()
	s.entries[e.Key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]Entry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]EntryInfo, error) {
	s.mu.RLock()
	infos := make([]EntryInfo, 0, len(s.entries))
	for _, e := range s.entries {
		infos = append(infos, EntryInfo{Key: e.Key, Size: len(e.Payload), FetchedAt: e.FetchedAt})
	}
	s.mu.RUnlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *MemoryStore) Close() error { return nil }
