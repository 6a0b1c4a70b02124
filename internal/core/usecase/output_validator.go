package usecase

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"dev.rubentxu.mr-harness/internal/core/domain"
	"dev.rubentxu.mr-harness/internal/core/ports"
	"github.com/pkg/errors"
)

const (
	reportTimeLayout = "2006-01-02 15:04:05"
	// MaxReportedFailures es cuántos fallos se muestran por consola.
	MaxReportedFailures = 10
)

// OutputValidator combina las particiones de salida del job y las compara
// con el ground truth.
type OutputValidator struct {
	OutputDir    string
	FailuresFile string
	logger       ports.Logger
	now          func() time.Time
}

func NewOutputValidator(outputDir, failuresFile string, logger ports.Logger) *OutputValidator {
	return &OutputValidator{
		OutputDir:    outputDir,
		FailuresFile: failuresFile,
		logger:       logger.With("component", "output_validator"),
		now:          time.Now,
	}
}

// Merge lee todos los ficheros de partición y suma las cuentas por token.
// El resultado no depende del orden de lectura.
func (v *OutputValidator) Merge() (domain.WordCount, error) {
	files, err := listRegularFiles(v.OutputDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.WordCount{}, errors.Wrapf(domain.ErrOutputDirectoryMissing, "output directory %s", v.OutputDir)
		}
		return domain.WordCount{}, err
	}

	observed := make(domain.WordCount)
	for _, name := range files {
		if err := v.mergeFile(name, observed); err != nil {
			return domain.WordCount{}, err
		}
	}
	v.logger.Info("Merged output partitions", "files", len(files), "distinct_tokens", len(observed))
	return observed, nil
}

func (v *OutputValidator) mergeFile(name string, observed domain.WordCount) error {
	content, err := os.ReadFile(filepath.Join(v.OutputDir, name))
	if err != nil {
		return errors.Wrapf(err, "failed to read output file %s", name)
	}
	scanner := domain.NewLineScanner(bytes.NewReader([]byte(decodeLenient(content))))
	for scanner.Scan() {
		line := scanner.Text()
		if domain.IsBlankLine(line) {
			continue
		}
		token, count, ok := domain.ParseCountLine(line)
		if !ok {
			v.logger.Warn("Ignoring malformed line", "file", name, "line", line)
			continue
		}
		observed.Add(token, count)
	}
	return errors.Wrapf(scanner.Err(), "failed to scan output file %s", name)
}

// Compare produce la secuencia ordenada de fallos: primero los tokens del
// ground truth (faltantes o con cuenta distinta) en orden de token, después
// los tokens espurios, también ordenados.
func Compare(truth, observed domain.WordCount) []domain.ValidationFailure {
	var failures []domain.ValidationFailure
	for _, token := range truth.Tokens() {
		expected := truth[token]
		actual, ok := observed[token]
		switch {
		case !ok:
			failures = append(failures, domain.MissingFailure(token, expected))
		case actual != expected:
			failures = append(failures, domain.MismatchFailure(token, expected, actual))
		}
	}
	for _, token := range observed.Tokens() {
		if _, ok := truth[token]; !ok {
			failures = append(failures, domain.SpuriousFailure(token, observed[token]))
		}
	}
	return failures
}

// Validate combina la salida, la compara con truth y escribe el informe de
// fallos. Si falta el directorio de salida se compara contra un mapa vacío y
// el error se devuelve junto con los fallos.
func (v *OutputValidator) Validate(truth domain.WordCount) ([]domain.ValidationFailure, error) {
	v.logger.Info("Validating MapReduce output...", "output_dir", v.OutputDir)

	observed, mergeErr := v.Merge()
	if mergeErr != nil && !errors.Is(mergeErr, domain.ErrOutputDirectoryMissing) {
		return nil, mergeErr
	}

	failures := Compare(truth, observed)
	if err := v.WriteReport(failures); err != nil {
		return failures, err
	}
	if len(failures) == 0 {
		v.logger.Info("All output validated successfully!")
	} else {
		v.logger.Warn("Validation failures found", "count", len(failures), "failures_file", v.FailuresFile)
	}
	return failures, mergeErr
}

// WriteReport escribe el informe completo con cabecera fechada.
func (v *OutputValidator) WriteReport(failures []domain.ValidationFailure) error {
	err := writeFileAtomic(v.FailuresFile, func(w io.Writer) (int64, error) {
		return 0, WriteFailureReport(w, v.now(), failures)
	})
	return errors.Wrapf(err, "failed to write failures file %s", v.FailuresFile)
}

// WriteFailureReport da el formato del informe: cabecera, total, línea en
// blanco y un fallo por línea.
func WriteFailureReport(w io.Writer, at time.Time, failures []domain.ValidationFailure) error {
	if _, err := fmt.Fprintf(w, "MapReduce Validation Failures - %s\nTotal Failures: %d\n\n", at.Format(reportTimeLayout), len(failures)); err != nil {
		return err
	}
	for _, f := range failures {
		if _, err := fmt.Fprintln(w, f.String()); err != nil {
			return err
		}
	}
	return nil
}

// PrintFailureSummary muestra como mucho MaxReportedFailures fallos y cuántos quedan.
func PrintFailureSummary(w io.Writer, failures []domain.ValidationFailure, failuresFile string) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d validation failures found:\n", len(failures))
	shown := failures
	if len(shown) > MaxReportedFailures {
		shown = shown[:MaxReportedFailures]
	}
	for _, f := range shown {
		fmt.Fprintln(w, f.String())
	}
	if rest := len(failures) - len(shown); rest > 0 {
		fmt.Fprintf(w, "...and %d more failures.\n", rest)
	}
	fmt.Fprintf(w, "\nAll failures have been saved to %s\n", failuresFile)
}
