package run

import (
	"time"

	"dev.rubentxu.mr-harness/internal/core/domain"
	"dev.rubentxu.mr-harness/internal/core/domain/resource"
	"github.com/google/uuid"
)

// Result es la clasificación final de una invocación del harness, persistida
// junto con la secuencia de fallos para inspección posterior.
type Result struct {
	ID            uuid.UUID                  `json:"id"`
	StartedAt     time.Time                  `json:"started_at"`
	FinishedAt    *time.Time                 `json:"finished_at,omitempty"`
	Phase         Phase                      `json:"phase"`
	Success       bool                       `json:"success"`
	FaultInjected bool                       `json:"fault_injected"`
	KilledWorker  *domain.WorkerProcess      `json:"killed_worker,omitempty"`
	Failures      []domain.ValidationFailure `json:"failures,omitempty"`
	TruthFile     string                     `json:"truth_file,omitempty"`
	FailuresFile  string                     `json:"failures_file,omitempty"`
	Message       string                     `json:"message,omitempty"`
	ExitCode      int                        `json:"exit_code"`
	Host          *resource.HostSnapshot     `json:"host,omitempty"`
}

// NewResult crea un resultado en fase Pending con un ID nuevo.
func NewResult() *Result {
	return &Result{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Phase:     Pending,
	}
}

// Finish cierra el resultado en una fase terminal.
func (r *Result) Finish(phase Phase, message string) {
	now := time.Now()
	r.Phase = phase
	r.Message = message
	r.FinishedAt = &now
	r.Success = phase == Passed
}

// Duration retorna la duración de la ejecución
func (r *Result) Duration() time.Duration {
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}

// PhaseEvent se emite en cada transición de fase.
type PhaseEvent struct {
	RunID     uuid.UUID
	From      Phase
	To        Phase
	Timestamp time.Time
	Message   string
}
