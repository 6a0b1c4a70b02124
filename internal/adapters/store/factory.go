package store

import (
	"fmt"
	"path/filepath"

	"dev.rubentxu.mr-harness/internal/core/ports"
)

type StoreType string

const (
	MemoryStore     StoreType = "memory"
	PersistentStore StoreType = "persistent"
)

// NewRunRepository crea el repositorio de resultados. El persistente vive en
// <dir>/<name>_runs.db.
func NewRunRepository(storeType StoreType, dir string, name string) (ports.RunRepository, error) {
	switch storeType {
	case MemoryStore:
		return NewInMemoryRunStore(), nil
	case PersistentStore:
		filename := filepath.Join(dir, fmt.Sprintf("%s_runs.db", name))
		return NewBoltRunStore(filename, 0600, "runs")
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
