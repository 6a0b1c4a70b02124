package resource

import (
	"runtime"
	"time"
)

// HostSnapshot captura la carga de la máquina al iniciar una ejecución.
type HostSnapshot struct {
	TakenAt        time.Time `json:"taken_at"`
	AvailableCores int       `json:"available_cores"`
	Load1Min       float64   `json:"load_1min"`
	Load5Min       float64   `json:"load_5min"`
	Load15Min      float64   `json:"load_15min"`
	ProcessRunning uint64    `json:"process_running"`
	ProcessTotal   uint64    `json:"process_total"`
	MemTotalKb     uint64    `json:"mem_total_kb"`
	MemAvailableKb uint64    `json:"mem_available_kb"`
}

// NewHostSnapshot crea una instancia con los valores que no dependen de /proc
func NewHostSnapshot() HostSnapshot {
	return HostSnapshot{
		TakenAt:        time.Now(),
		AvailableCores: runtime.NumCPU(),
	}
}
