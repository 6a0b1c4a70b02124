package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Claves conocidas del fichero de configuración del job.
const (
	KeyWorkers      = "worker_ipaddr_ports"
	KeyNWorkers     = "n_workers"
	KeyInputFiles   = "input_files"
	KeyOutputDir    = "output_dir"
	KeyNOutputFiles = "n_output_files"
	KeyMapKilobytes = "map_kilobytes"
	KeyUserID       = "user_id"
)

// JobConfig es la configuración plana key=value, cargada una vez por ejecución
// y nunca modificada.
type JobConfig struct {
	Path      string
	Values    map[string]string
	Endpoints []WorkerEndpoint
}

// Get devuelve el valor de key o "" si no existe.
func (c JobConfig) Get(key string) string {
	return c.Values[key]
}

func (c JobConfig) NWorkers() int { return c.intValue(KeyNWorkers) }
func (c JobConfig) NOutputFiles() int { return c.intValue(KeyNOutputFiles) }
func (c JobConfig) MapKilobytes() int { return c.intValue(KeyMapKilobytes) }
func (c JobConfig) OutputDir() string { return c.Values[KeyOutputDir] }
func (c JobConfig) UserID() string { return c.Values[KeyUserID] }
func (c JobConfig) InputFiles() []string { return SplitList(c.Values[KeyInputFiles]) }

func (c JobConfig) intValue(key string) int {
	n, err := strconv.Atoi(c.Values[key])
	if err != nil {
		return 0
	}
	return n
}

// Validate revisa la coherencia que el driver exige a su especificación.
// Devuelve los problemas encontrados; el harness los trata como avisos.
func (c JobConfig) Validate() []string {
	var problems []string
	if n := c.NWorkers(); n == 0 || n != len(c.Endpoints) {
		problems = append(problems, fmt.Sprintf("%s=%d does not match %d configured endpoints", KeyNWorkers, n, len(c.Endpoints)))
	}
	if c.OutputDir() == "" {
		problems = append(problems, KeyOutputDir+" is empty")
	}
	if c.MapKilobytes() == 0 {
		problems = append(problems, KeyMapKilobytes+" is zero or missing")
	}
	if c.UserID() == "" {
		problems = append(problems, KeyUserID+" is empty")
	}
	if c.NOutputFiles() == 0 {
		problems = append(problems, KeyNOutputFiles+" is zero or missing")
	}
	return problems
}

// SplitList separa por comas y descarta entradas vacías.
func SplitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
