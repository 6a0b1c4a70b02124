package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// Condiciones que los componentes devuelven en su frontera. Solo el
// orquestador decide si son fatales o degradadas.
var (
	ErrConfigNotFound         = errors.New("config file not found")
	ErrConfigMalformed        = errors.New("malformed config line")
	ErrNoWorkersConfigured    = errors.New("no worker addresses configured")
	ErrJobFailed              = errors.New("mapreduce job failed")
	ErrInputDirectoryMissing  = errors.New("input directory not found")
	ErrOutputDirectoryMissing = errors.New("output directory not found")
)

// JobFailedError representa la salida no cero del driver del job.
type JobFailedError struct {
	ExitCode int
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("%s (exit code %d)", ErrJobFailed, e.ExitCode)
}

// Unwrap permite usar errors.Is(err, ErrJobFailed).
func (e *JobFailedError) Unwrap() error {
	return ErrJobFailed
}
