package usecase

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"dev.rubentxu.mr-harness/internal/core/domain"
	"dev.rubentxu.mr-harness/internal/core/ports"
)

const (
	DefaultSettleInterval = 1 * time.Second
	DefaultTerminateGrace = 3 * time.Second
)

// FleetConfig agrupa lo necesario para lanzar workers.
type FleetConfig struct {
	WorkerBinary   string
	WorkingDir     string
	SettleInterval time.Duration
	TerminateGrace time.Duration
	// ProbeTimeout acota la comprobación de arranque; 0 la desactiva.
	ProbeTimeout   time.Duration
}

type trackedWorker struct {
	info domain.WorkerProcess
	proc ports.Process
}

// FleetManager es el único dueño de los procesos worker. El conjunto de
// procesos rastreados admite un borrado concurrente (KillOne) mientras la
// limpieza lo recorre.
type FleetManager struct {
	cfg      FleetConfig
	launcher ports.ProcessLauncher
	prober   ports.EndpointProber
	logger   ports.Logger

	mu      sync.Mutex
	workers map[int]trackedWorker
	next    int

	// pick elige un índice en [0, n); reemplazable en tests.
	pick func(n int) int
}

func NewFleetManager(cfg FleetConfig, launcher ports.ProcessLauncher, prober ports.EndpointProber, logger ports.Logger) *FleetManager {
	if cfg.SettleInterval < 0 {
		cfg.SettleInterval = 0
	}
	if cfg.TerminateGrace == 0 {
		cfg.TerminateGrace = DefaultTerminateGrace
	}
	return &FleetManager{
		cfg:      cfg,
		launcher: launcher,
		prober:   prober,
		logger:   logger.With("component", "fleet_manager"),
		workers:  make(map[int]trackedWorker),
		pick:     rand.Intn,
	}
}

// StartAll lanza un worker por endpoint. Un fallo de arranque se registra y
// se continúa: se admiten flotas parciales. Devuelve cuántos quedaron vivos.
func (f *FleetManager) StartAll(ctx context.Context, endpoints []domain.WorkerEndpoint) int {
	f.logger.Info("Starting worker processes", "count", len(endpoints))
	for _, endpoint := range endpoints {
		if f.isTracked(endpoint) {
			f.logger.Warn("Worker already running for endpoint, skipping", "endpoint", endpoint)
			continue
		}
		proc, err := f.launcher.Start(ctx, domain.ProcessSpec{
			Name:       "worker " + endpoint.String(),
			Command:    []string{f.cfg.WorkerBinary, endpoint.String()},
			WorkingDir: f.cfg.WorkingDir,
		})
		if err != nil {
			f.logger.Warn("Failed to start worker", "endpoint", endpoint, "error", err)
			continue
		}

		f.mu.Lock()
		idx := f.next
		f.next++
		info := domain.WorkerProcess{Index: idx, Endpoint: endpoint, PID: proc.PID(), StartedAt: time.Now()}
		f.workers[idx] = trackedWorker{info: info, proc: proc}
		f.mu.Unlock()

		f.logger.Info("Started worker", "endpoint", endpoint, "pid", info.PID, "index", idx)
	}

	f.logger.Info("Waiting for workers to initialize...", "settle", f.cfg.SettleInterval)
	select {
	case <-time.After(f.cfg.SettleInterval):
	case <-ctx.Done():
		return f.Len()
	}

	f.probeAll(ctx)
	return f.Len()
}

func (f *FleetManager) probeAll(ctx context.Context) {
	if f.prober == nil || f.cfg.ProbeTimeout <= 0 {
		return
	}
	probeCtx, cancel := context.WithTimeout(ctx, f.cfg.ProbeTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range f.Workers() {
		wg.Add(1)
		go func(w domain.WorkerProcess) {
			defer wg.Done()
			if err := f.prober.Probe(probeCtx, w.Endpoint); err != nil {
				f.logger.Warn("Worker not reachable after settle interval", "endpoint", w.Endpoint, "pid", w.PID, "error", err)
				return
			}
			f.logger.Debug("Worker reachable", "endpoint", w.Endpoint, "pid", w.PID)
		}(w)
	}
	wg.Wait()
}

// KillOne elige uniformemente un worker rastreado y le envía SIGKILL. Si la
// señal llega, el worker sale del conjunto. ok es false si no había a quién
// matar o si la señal falló.
func (f *FleetManager) KillOne() (domain.WorkerProcess, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.workers) == 0 {
		f.logger.Warn("No workers to kill")
		return domain.WorkerProcess{}, false
	}

	indices := f.sortedIndicesLocked()
	victim := f.workers[indices[f.pick(len(indices))]]
	if err := victim.proc.Kill(); err != nil {
		f.logger.Warn("Error killing worker", "endpoint", victim.info.Endpoint, "pid", victim.info.PID, "error", err)
		return victim.info, false
	}
	delete(f.workers, victim.info.Index)
	f.logger.Info("Killed worker", "endpoint", victim.info.Endpoint, "pid", victim.info.PID)
	return victim.info, true
}

// TerminateAll envía SIGTERM a todos los workers rastreados, ignorando los
// que ya terminaron, espera un margen acotado y vacía el conjunto. Es idempotente.
func (f *FleetManager) TerminateAll() {
	f.mu.Lock()
	victims := make([]trackedWorker, 0, len(f.workers))
	for _, idx := range f.sortedIndicesLocked() {
		victims = append(victims, f.workers[idx])
	}
	f.workers = make(map[int]trackedWorker)
	f.mu.Unlock()

	if len(victims) == 0 {
		return
	}

	f.logger.Info("Cleaning up worker processes...", "count", len(victims))
	for _, v := range victims {
		if err := v.proc.Terminate(); err != nil {
			f.logger.Debug("Worker already gone", "pid", v.info.PID, "error", err)
			continue
		}
		f.logger.Info("Terminated worker", "endpoint", v.info.Endpoint, "pid", v.info.PID)
	}

	deadline := time.After(f.cfg.TerminateGrace)
	for _, v := range victims {
		select {
		case <-v.proc.Done():
		case <-deadline:
			f.logger.Warn("Worker still running after grace period", "pid", v.info.PID, "grace", f.cfg.TerminateGrace)
			return
		}
	}
}

// Workers devuelve una copia del conjunto rastreado ordenada por índice.
func (f *FleetManager) Workers() []domain.WorkerProcess {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.WorkerProcess, 0, len(f.workers))
	for _, idx := range f.sortedIndicesLocked() {
		out = append(out, f.workers[idx].info)
	}
	return out
}

func (f *FleetManager) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.workers)
}

func (f *FleetManager) isTracked(endpoint domain.WorkerEndpoint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.workers {
		if w.info.Endpoint == endpoint {
			return true
		}
	}
	return false
}

func (f *FleetManager) sortedIndicesLocked() []int {
	indices := make([]int, 0, len(f.workers))
	for idx := range f.workers {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}
