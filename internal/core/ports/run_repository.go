package ports

import (
	"dev.rubentxu.mr-harness/internal/core/domain/run"
	"github.com/google/uuid"
)

// RunRepository define la interfaz para persistir y recuperar resultados de ejecuciones
type RunRepository interface {
	Save(result *run.Result) error
	Get(id uuid.UUID) (*run.Result, error)
	// List devuelve los resultados ordenados por fecha de inicio.
	List() ([]*run.Result, error)
	Delete(id uuid.UUID) error
	Close() error
}
