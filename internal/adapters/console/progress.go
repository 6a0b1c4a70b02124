package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"dev.rubentxu.mr-harness/internal/core/domain/run"
)

// ProgressPrinter muestra por consola una línea por fase de la ejecución.
type ProgressPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func NewProgressPrinter(out io.Writer) *ProgressPrinter {
	return &ProgressPrinter{out: out}
}

func (p *ProgressPrinter) Notify(event run.PhaseEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.To.IsTerminal() {
		fmt.Fprintf(p.out, "[%s] %s: %s\n", event.Timestamp.Format(time.TimeOnly), event.To, event.Message)
		return
	}
	fmt.Fprintf(p.out, "[%s] %s...\n", event.Timestamp.Format(time.TimeOnly), event.Message)
}

// PrintHistory lista ejecuciones previas, una por línea.
func PrintHistory(out io.Writer, runs []*run.Result) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No previous runs recorded")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s  %-11s failures=%d fault_injected=%t duration=%s\n",
			r.ID, r.StartedAt.Format(time.DateTime), r.Phase, len(r.Failures), r.FaultInjected, r.Duration().Round(time.Millisecond))
	}
}
