package stats

import (
	"path/filepath"

	"dev.rubentxu.mr-harness/internal/core/domain/resource"
	"github.com/c9s/goprocinfo/linux"
	"github.com/pkg/errors"
)

// ProcStats lee la carga y la memoria del host desde procfs.
type ProcStats struct {
	ProcRoot string
}

func NewProcStats() *ProcStats {
	return &ProcStats{ProcRoot: "/proc"}
}

// Snapshot falla si procfs no está disponible (p. ej. fuera de Linux).
func (p *ProcStats) Snapshot() (resource.HostSnapshot, error) {
	snap := resource.NewHostSnapshot()

	load, err := linux.ReadLoadAvg(filepath.Join(p.ProcRoot, "loadavg"))
	if err != nil {
		return snap, errors.Wrap(err, "unable to read loadavg")
	}
	snap.Load1Min = load.Last1Min
	snap.Load5Min = load.Last5Min
	snap.Load15Min = load.Last15Min
	snap.ProcessRunning = load.ProcessRunning
	snap.ProcessTotal = load.ProcessTotal

	mem, err := linux.ReadMemInfo(filepath.Join(p.ProcRoot, "meminfo"))
	if err != nil {
		return snap, errors.Wrap(err, "unable to read meminfo")
	}
	snap.MemTotalKb = mem.MemTotal
	snap.MemAvailableKb = mem.MemAvailable
	return snap, nil
}
