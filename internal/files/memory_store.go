package files

import (
	"context"
	"sync"

	"github.com/harrylevesque/revisitor/internal/models"
)

// MemoryStore is a RecordStore that lives for the process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.ReviewRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]models.ReviewRecord{}}
}

func (s *MemoryStore) Get(_ context.Context, eventID string) (models.ReviewRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[eventID]
	return rec, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, rec models.ReviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.EventID] = rec
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, eventID)
	return nil
}

func (s *MemoryStore) All(context.Context) (map[string]models.ReviewRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.ReviewRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// SessionStore holds per-process flags, such as whether feedback was already
// given.
type SessionStore struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewSessionStore() *SessionStore {
	return &SessionStore{flags: map[string]bool{}}
}

func (s *SessionStore) Flag(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[name]
}

func (s *SessionStore) SetFlag(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[name] = true
}

func (s *SessionStore) ClearFlag(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, name)
}
