package store

import (
	"sync"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory location store. It is used
// when durable storage is disabled; the value does not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	raw   []byte
	codec locationCodec
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores loc. Invalid locations are dropped.
func (s *MemoryStore) Save(loc weather.Location) {
	raw, err := s.codec.encode(loc)
	if err != nil {
		logSaveFailure(err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
}

// Load returns the stored location, if any.
func (s *MemoryStore) Load() (weather.Location, bool) {
	s.mu.RLock()
	raw := s.raw
	s.mu.RUnlock()

	if raw == nil {
		return weather.Location{}, false
	}
	return s.codec.decode(raw)
}

// SetRaw replaces the stored payload verbatim. It exists to model a
// corrupted or foreign value in the backing storage.
func (s *MemoryStore) SetRaw(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
}
