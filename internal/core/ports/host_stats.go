package ports

import "dev.rubentxu.mr-harness/internal/core/domain/resource"

// HostStatsProvider obtiene una instantánea de carga del host.
type HostStatsProvider interface {
	Snapshot() (resource.HostSnapshot, error)
}
