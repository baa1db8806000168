package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/harrylevesque/revisitor/internal/models"
)

// JSONStore keeps every review record in a single JSON file, optionally
// sealed with AES-GCM.
type JSONStore struct {
	filePath string
	key      []byte
	mu       sync.RWMutex
	records  map[string]models.ReviewRecord
}

// NewJSONStore opens the store at filePath. A nil key stores plain JSON.
func NewJSONStore(filePath string, key []byte) (*JSONStore, error) {
	s := &JSONStore{filePath: filePath, key: key}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("load review store %s: %w", filePath, err)
	}
	return s, nil
}

func (s *JSONStore) Get(_ context.Context, eventID string) (models.ReviewRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[eventID]
	return rec, ok, nil
}

func (s *JSONStore) Put(_ context.Context, rec models.ReviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.records[rec.EventID]
	s.records[rec.EventID] = rec
	if err := s.flush(); err != nil {
		if had {
			s.records[rec.EventID] = prev
		} else {
			delete(s.records, rec.EventID)
		}
		return err
	}
	return nil
}

func (s *JSONStore) Delete(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.records[eventID]
	if !had {
		return nil
	}
	delete(s.records, eventID)
	if err := s.flush(); err != nil {
		s.records[eventID] = prev
		return err
	}
	return nil
}

func (s *JSONStore) All(context.Context) (map[string]models.ReviewRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.ReviewRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out, nil
}

// Clear removes every record and the backing file.
func (s *JSONStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = map[string]models.ReviewRecord{}
	if err := os.Remove(s.filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := map[string]models.ReviewRecord{}
	if err := readSealedFile(s.filePath, &records, s.key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.records = records
	return nil
}

func (s *JSONStore) flush() error {
	return writeSealedFile(s.filePath, s.records, s.key)
}
