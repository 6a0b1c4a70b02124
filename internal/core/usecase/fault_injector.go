package usecase

import (
	"context"
	"time"

	"dev.rubentxu.mr-harness/internal/core/domain"
	"dev.rubentxu.mr-harness/internal/core/ports"
)

const DefaultKillDelay = 2 * time.Second

// Killer es la parte de la flota que necesita el inyector.
type Killer interface {
	KillOne() (domain.WorkerProcess, bool)
}

// InjectionResult describe lo que hizo el inyector.
type InjectionResult struct {
	Attempted    bool
	Killed       bool
	Worker       domain.WorkerProcess
	// AfterJobExit es true si el driver ya había terminado cuando venció el retardo.
	AfterJobExit bool
	At           time.Time
}

// FaultInjector mata un worker tras un retardo fijo mientras el job está en
// marcha. El retardo es una aproximación: no garantiza que el job siga
// ejecutándose cuando vence.
type FaultInjector struct {
	Enabled bool
	Delay   time.Duration
	killer  Killer
	logger  ports.Logger
}

func NewFaultInjector(enabled bool, delay time.Duration, killer Killer, logger ports.Logger) *FaultInjector {
	if delay < 0 {
		delay = DefaultKillDelay
	}
	return &FaultInjector{
		Enabled: enabled,
		Delay:   delay,
		killer:  killer,
		logger:  logger.With("component", "fault_injector"),
	}
}

// Start lanza la inyección en segundo plano y devuelve un canal que recibe un
// único resultado. Si está desactivado el canal se cierra sin valor. jobDone
// solo sirve para advertir cuando el kill llega con el job ya terminado.
func (fi *FaultInjector) Start(ctx context.Context, jobDone <-chan struct{}) <-chan InjectionResult {
	out := make(chan InjectionResult, 1)
	if !fi.Enabled {
		close(out)
		return out
	}

	fi.logger.Info("[Fault Tolerance Test] Killing a random worker after delay", "delay", fi.Delay)
	go func() {
		defer close(out)
		select {
		case <-time.After(fi.Delay):
		case <-ctx.Done():
			fi.logger.Warn("[Fault Tolerance Test] Injection cancelled", "error", ctx.Err())
			out <- InjectionResult{}
			return
		}

		res := InjectionResult{Attempted: true, At: time.Now()}
		select {
		case <-jobDone:
			res.AfterJobExit = true
			fi.logger.Warn("[Fault Tolerance Test] Job already finished, kill will not be observed by it")
		default:
		}

		res.Worker, res.Killed = fi.killer.KillOne()
		if res.Killed {
			fi.logger.Info("[Fault Tolerance Test] Killed worker", "pid", res.Worker.PID, "endpoint", res.Worker.Endpoint)
		}
		out <- res
	}()
	return out
}
