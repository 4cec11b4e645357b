package store

import (
	"context"
	"sort"
	"sync"

	"github.com/i474232898/weather-forecasts/internal/forecast"
)

// MemoryStore is a concurrency-safe in-memory document store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: forecast id
	data map[int]forecast.Forecast
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[int]forecast.Forecast),
	}
}

// FindAll returns every forecast ordered by id.
func (s *MemoryStore) FindAll(_ context.Context) ([]forecast.Forecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]forecast.Forecast, 0, len(s.data))
	for _, f := range s.data {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) FindOne(_ context.Context, id int) (forecast.Forecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.data[id]
	if !ok {
		return forecast.Forecast{}, forecast.ErrNotFound
	}
	return f, nil
}

// InsertOne adds f unless its id is already present.
func (s *MemoryStore) InsertOne(_ context.Context, f forecast.Forecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[f.ID]; exists {
		return forecast.ErrDuplicateID
	}
	s.data[f.ID] = f
	return nil
}

// ReplaceOne swaps in f only while the stored token still equals expectedETag.
func (s *MemoryStore) ReplaceOne(_ context.Context, f forecast.Forecast, expectedETag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.data[f.ID]
	if !ok {
		return forecast.ErrNotFound
	}
	if !forecast.ETagsMatch(existing.ETag, expectedETag) {
		return forecast.ErrETagMismatch
	}
	s.data[f.ID] = f
	return nil
}

func (s *MemoryStore) DeleteOne(_ context.Context, id int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return 0, nil
	}
	delete(s.data, id)
	return 1, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// Ping always succeeds; the memory store has no connection to lose.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
