package usecase

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"dev.rubentxu.mr-harness/internal/core/domain"
	"dev.rubentxu.mr-harness/internal/core/ports"
	"github.com/golang-collections/collections/queue"
	"github.com/pkg/errors"
)

// GroundTruthComputer recalcula el conteo esperado directamente desde el
// corpus de entrada, con la misma tokenización que el job distribuido.
type GroundTruthComputer struct {
	InputDir  string
	TruthFile string
	// Readers es cuántos ficheros se cuentan a la vez; <= 0 usa runtime.NumCPU().
	Readers   int
	logger    ports.Logger
}

func NewGroundTruthComputer(inputDir, truthFile string, logger ports.Logger) *GroundTruthComputer {
	return &GroundTruthComputer{
		InputDir:  inputDir,
		TruthFile: truthFile,
		logger:    logger.With("component", "ground_truth"),
	}
}

// inputFile es una entrada de la lista de trabajo: se encola con su nombre y
// el lector que la saca anota lo que encontró.
type inputFile struct {
	name   string
	bytes  int
	tokens int
}

// workList es la cola FIFO de ficheros pendientes compartida por los lectores.
type workList struct {
	mu      sync.Mutex
	pending *queue.Queue
}

func newWorkList(names []string) *workList {
	w := &workList{pending: queue.New()}
	for _, name := range names {
		w.pending.Enqueue(&inputFile{name: name})
	}
	return w
}

func (w *workList) next() (*inputFile, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending.Len() == 0 {
		return nil, false
	}
	return w.pending.Dequeue().(*inputFile), true
}

// Compute reparte los ficheros del directorio de entrada entre Readers
// lectores; cada uno cuenta en su propio mapa y al final se suman. La suma no
// depende del orden, así que el resultado es el de una lectura secuencial. Si
// el directorio no existe devuelve un mapa vacío junto con
// domain.ErrInputDirectoryMissing.
func (g *GroundTruthComputer) Compute() (domain.WordCount, error) {
	g.logger.Info("Generating truth data...", "input_dir", g.InputDir)

	files, err := listRegularFiles(g.InputDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.WordCount{}, errors.Wrapf(domain.ErrInputDirectoryMissing, "input directory %s", g.InputDir)
		}
		return domain.WordCount{}, err
	}

	readers := g.Readers
	if readers <= 0 {
		readers = runtime.NumCPU()
	}
	if readers > len(files) {
		readers = len(files)
	}

	work := newWorkList(files)
	partials := make([]domain.WordCount, readers)
	errs := make([]error, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			partials[i], errs[i] = g.drain(work)
		}(i)
	}
	wg.Wait()

	counts := make(domain.WordCount)
	for i, partial := range partials {
		if errs[i] != nil {
			return domain.WordCount{}, errs[i]
		}
		for token, n := range partial {
			counts.Add(token, n)
		}
	}
	g.logger.Info("Truth data computed", "files", len(files), "distinct_tokens", len(counts), "total_tokens", counts.Total())
	return counts, nil
}

// drain saca ficheros de work hasta vaciarla y los cuenta en un mapa propio.
// Se detiene en el primer error de lectura.
func (g *GroundTruthComputer) drain(work *workList) (domain.WordCount, error) {
	counts := make(domain.WordCount)
	for {
		file, ok := work.next()
		if !ok {
			return counts, nil
		}
		content, err := os.ReadFile(filepath.Join(g.InputDir, file.name))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read input file %s", file.name)
		}
		file.bytes = len(content)
		file.tokens = CountTokens(decodeLenient(content), counts)
		g.logger.Debug("Processed input file", "file", file.name, "bytes", file.bytes, "tokens", file.tokens)
	}
}

// ComputeAndPersist calcula el ground truth y lo escribe en TruthFile. El mapa
// se devuelve aunque falte el directorio de entrada, para que siga siendo comparable.
func (g *GroundTruthComputer) ComputeAndPersist() (domain.WordCount, error) {
	counts, computeErr := g.Compute()
	if computeErr != nil && !errors.Is(computeErr, domain.ErrInputDirectoryMissing) {
		return counts, computeErr
	}
	if err := writeFileAtomic(g.TruthFile, counts.WriteTo); err != nil {
		return counts, errors.Wrapf(err, "failed to write truth file %s", g.TruthFile)
	}
	g.logger.Info("Truth data generated and saved", "truth_file", g.TruthFile)
	return counts, computeErr
}

// CountTokens tokeniza content y suma cada token en counts. Devuelve el
// número de tokens contados.
func CountTokens(content string, counts domain.WordCount) int {
	n := 0
	for _, token := range Tokenize(content) {
		counts.Add(token, 1)
		n++
	}
	return n
}

// Tokenize aplica la regla del job:
//   - el contenido termina siempre en salto de línea;
//   - los espacios separan igual que los saltos de línea (no los tabuladores);
//   - a cada token se le quita un único punto final;
//   - los tokens vacíos se descartan.
func Tokenize(content string) []string {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	fields := strings.FieldsFunc(content, isTokenSeparator)
	tokens := fields[:0]
	for _, field := range fields {
		field = strings.TrimSuffix(field, ".")
		if field != "" {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// isTokenSeparator: el espacio y todos los límites de línea que reconoce un
// splitlines() (\n \r \v \f \x1c \x1d \x1e \x85 U+2028 U+2029).
func isTokenSeparator(r rune) bool {
	switch r {
	case ' ', '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// decodeLenient sustituye cada byte UTF-8 inválido por U+FFFD.
func decodeLenient(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}

// listRegularFiles devuelve los ficheros regulares (siguiendo symlinks) de dir
// ordenados por nombre, comparando bytes.
func listRegularFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", dir)
	}
	var names []string
	for _, entry := range entries {
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
