package ports

import (
	"context"

	"dev.rubentxu.mr-harness/internal/core/domain"
)

// ProcessLauncher lanza procesos externos opacos (workers y driver del job).
type ProcessLauncher interface {
	Start(ctx context.Context, spec domain.ProcessSpec) (Process, error)
}

// Process es el handle de un proceso lanzado.
type Process interface {
	PID() int
	// Terminate envía una señal de terminación ordenada (SIGTERM).
	Terminate() error
	// Kill envía una señal no capturable (SIGKILL). Ambas fallan si el
	// proceso ya terminó.
	Kill() error
	// Wait bloquea hasta que el proceso termina y devuelve su código de salida.
	// Puede llamarse varias veces y desde varias goroutines.
	Wait() (exitCode int, err error)
	// Done se cierra cuando el proceso ha terminado.
	Done() <-chan struct{}
}

// EndpointProber comprueba que un worker acepta conexiones tras arrancar.
type EndpointProber interface {
	Probe(ctx context.Context, endpoint domain.WorkerEndpoint) error
}
