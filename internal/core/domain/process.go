package domain

import "time"

// ProcessSpec representa la solicitud de lanzamiento de un proceso externo.
type ProcessSpec struct {
	Name       string
	Command    []string
	WorkingDir string
	EnvVars    map[string]string
}

// WorkerProcess es un worker vivo registrado en la flota.
type WorkerProcess struct {
	Index     int
	Endpoint  WorkerEndpoint
	PID       int
	StartedAt time.Time
}
