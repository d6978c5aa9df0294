package store

import (
	"sync"

	"github.com/i474232898/weather-ku/internal/weather"
)

// MemoryStore is a concurrency-safe wrapper around the shared weather table.
// Reads run under the shared lock; each batch runs under one exclusive lock,
// so readers observe none or all of it.
type MemoryStore struct {
	mu    sync.RWMutex
	table *weather.Table
}

// NewMemoryStore takes ownership of t. A nil table starts empty.
func NewMemoryStore(t *weather.Table) *MemoryStore {
	if t == nil {
		t = weather.NewEmptyTable()
	}
	return &MemoryStore{table: t}
}

// Range returns a detached table holding the entries between begin and end.
func (s *MemoryStore) Range(begin, end weather.Date) (*weather.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Range(begin, end)
}

// All returns a detached copy of the whole table.
func (s *MemoryStore) All() *weather.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone()
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Len()
}

// Text serializes a consistent snapshot of the table.
func (s *MemoryStore) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Text()
}

func (s *MemoryStore) Insert(records []weather.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.InsertBatch(records)
}

func (s *MemoryStore) Update(dates []weather.Date, patches []weather.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.UpdateBatch(dates, patches)
}

func (s *MemoryStore) Delete(dates []weather.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.DeleteBatch(dates)
}
