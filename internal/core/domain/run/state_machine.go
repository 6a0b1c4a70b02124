package run

import "fmt"

// Phase es un enumerado para controlar el ciclo de vida de una ejecución del harness
type Phase int

const (
	Pending Phase = iota
	LoadingConfig
	StartingWorkers
	RunningJob
	ComputingTruth
	Validating
	Passed
	Failed
	Aborted
	Interrupted
)

func AllPhases() []string {
	return []string{
		"Pending",
		"LoadingConfig",
		"StartingWorkers",
		"RunningJob",
		"ComputingTruth",
		"Validating",
		"Passed",
		"Failed",
		"Aborted",
		"Interrupted",
	}
}

func (p Phase) String() string {
	names := AllPhases()
	if p < 0 || int(p) >= len(names) {
		return "Unknown"
	}
	return names[p]
}

// MarshalText guarda la fase por nombre en los registros persistidos.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range AllPhases() {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// IsTerminal indica si la ejecución ya no avanza.
func (p Phase) IsTerminal() bool {
	return p == Passed || p == Failed || p == Aborted || p == Interrupted
}

// Cualquier fase activa puede abortar o ser interrumpida; solo Validating
// decide entre Passed y Failed.
var phaseTransitionMap = map[Phase][]Phase{
	Pending:         {LoadingConfig, Aborted, Interrupted},
	LoadingConfig:   {StartingWorkers, Aborted, Interrupted},
	StartingWorkers: {RunningJob, Aborted, Interrupted},
	RunningJob:      {ComputingTruth, Aborted, Interrupted},
	ComputingTruth:  {Validating, Aborted, Interrupted},
	Validating:      {Passed, Failed, Aborted, Interrupted},
	Passed:          {},
	Failed:          {},
	Aborted:         {},
	Interrupted:     {},
}

func Contains(phases []Phase, phase Phase) bool {
	for _, p := range phases {
		if p == phase {
			return true
		}
	}
	return false
}

// ValidPhaseTransition valida si es posible pasar de src a dst según phaseTransitionMap
func ValidPhaseTransition(src Phase, dst Phase) bool {
	return Contains(phaseTransitionMap[src], dst)
}
