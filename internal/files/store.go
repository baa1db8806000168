package files

import (
	"fmt"

	"github.com/harrylevesque/revisitor/internal/review"
)

// Backends accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Store is a review.RecordStore that holds resources.
type Store interface {
	review.RecordStore
	Close() error
}

var (
	_ Store = (*JSONStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// Open builds the record store for backend. key seals the JSON backend and
// is ignored by the others.
func Open(backend, path string, key []byte) (Store, error) {
	switch backend {
	case BackendJSON, "":
		return NewJSONStore(path, key)
	case BackendSQLite:
		return NewSQLiteStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}
