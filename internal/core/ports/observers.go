package ports

import "dev.rubentxu.mr-harness/internal/core/domain/run"

// RunObserver recibe cada transición de fase de una ejecución del harness
type RunObserver interface {
	Notify(event run.PhaseEvent)
}

// RunObserverFunc adapta una función a RunObserver.
type RunObserverFunc func(event run.PhaseEvent)

func (f RunObserverFunc) Notify(event run.PhaseEvent) {
	f(event)
}
