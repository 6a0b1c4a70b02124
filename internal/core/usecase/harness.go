package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"dev.rubentxu.mr-harness/internal/core/domain"
	"dev.rubentxu.mr-harness/internal/core/domain/run"
	"dev.rubentxu.mr-harness/internal/core/ports"
	"github.com/pkg/errors"
)

const (
	ExitPassed      = 0
	ExitFailed      = 1
	ExitInterrupted = 130

	defaultOutputDir = "output"
)

// HarnessConfig describe dónde están los binarios, la configuración y los artefactos.
type HarnessConfig struct {
	ConfigFile     string
	BinDir         string
	DriverBinary   string
	InputDir       string
	// OutputDir vacío: se toma output_dir del fichero de configuración,
	// relativo a BinDir.
	OutputDir      string
	TruthFile      string
	FailuresFile   string
	Fleet          FleetConfig
	FaultTolerance bool
	KillDelay      time.Duration
}

// DefaultHarnessConfig reproduce la disposición habitual del proyecto:
// binarios y config.ini en <base>/bin y artefactos en <base>.
func DefaultHarnessConfig(baseDir string) HarnessConfig {
	binDir := filepath.Join(baseDir, "bin")
	return HarnessConfig{
		ConfigFile:   filepath.Join(binDir, "config.ini"),
		BinDir:       binDir,
		DriverBinary: "./mrdemo",
		InputDir:     filepath.Join(binDir, "input"),
		TruthFile:    filepath.Join(baseDir, "truth.txt"),
		FailuresFile: filepath.Join(baseDir, "failures.txt"),
		Fleet: FleetConfig{
			WorkerBinary:   "./mr_worker",
			WorkingDir:     binDir,
			SettleInterval: DefaultSettleInterval,
			TerminateGrace: DefaultTerminateGrace,
		},
		KillDelay: DefaultKillDelay,
	}
}

// Harness orquesta una ejecución completa. Es el único punto que decide si
// un error es fatal o degradado.
type Harness struct {
	cfg       HarnessConfig
	launcher  ports.ProcessLauncher
	prober    ports.EndpointProber
	runs      ports.RunRepository
	stats     ports.HostStatsProvider
	logger    ports.Logger
	out       io.Writer
	observers []ports.RunObserver
}

// HarnessOption configura dependencias opcionales.
type HarnessOption func(*Harness)

func WithProber(p ports.EndpointProber) HarnessOption {
	return func(h *Harness) { h.prober = p }
}

func WithRunRepository(r ports.RunRepository) HarnessOption {
	return func(h *Harness) { h.runs = r }
}

func WithHostStats(s ports.HostStatsProvider) HarnessOption {
	return func(h *Harness) { h.stats = s }
}

func WithObserver(o ports.RunObserver) HarnessOption {
	return func(h *Harness) { h.observers = append(h.observers, o) }
}

func NewHarness(cfg HarnessConfig, launcher ports.ProcessLauncher, logger ports.Logger, out io.Writer, opts ...HarnessOption) *Harness {
	h := &Harness{
		cfg:      cfg,
		launcher: launcher,
		logger:   logger.With("component", "harness"),
		out:      out,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run ejecuta el flujo completo. La limpieza de la flota se ejecuta siempre,
// también si ctx se cancela. El error solo es no nil en fallos fatales o
// interrupciones; un fallo de validación se refleja en el Result.
func (h *Harness) Run(ctx context.Context) (res *run.Result, err error) {
	res = run.NewResult()
	res.FaultInjected = h.cfg.FaultTolerance
	logger := h.logger.With("run_id", res.ID.String())
	defer h.persist(logger, res)

	if h.stats != nil {
		if snap, serr := h.stats.Snapshot(); serr != nil {
			logger.Debug("Host stats unavailable", "error", serr)
		} else {
			res.Host = &snap
			logger.Info("Host snapshot", "load_1min", snap.Load1Min, "mem_available_kb", snap.MemAvailableKb, "cores", snap.AvailableCores)
		}
	}

	h.advance(res, run.LoadingConfig, "Parsing config file")
	jobCfg, err := LoadJobConfig(h.cfg.ConfigFile)
	if err != nil {
		return res, h.abort(logger, res, err, ExitFailed)
	}
	logger.Info("Found worker addresses in config", "count", len(jobCfg.Endpoints))
	for _, problem := range jobCfg.Validate() {
		logger.Warn("Config inconsistency", "problem", problem)
	}

	fleet := NewFleetManager(h.cfg.Fleet, h.launcher, h.prober, logger)
	defer fleet.TerminateAll()

	h.advance(res, run.StartingWorkers, "Starting worker processes")
	if alive := fleet.StartAll(ctx, jobCfg.Endpoints); alive == 0 {
		logger.Warn("No worker process could be started, the job will probably fail")
	}
	if ctx.Err() != nil {
		return res, h.interrupt(logger, res, ctx.Err())
	}

	h.advance(res, run.RunningJob, "Running MapReduce job")
	if err := h.runJob(ctx, logger, res, jobCfg, fleet); err != nil {
		if ctx.Err() != nil {
			return res, h.interrupt(logger, res, err)
		}
		code := ExitFailed
		var jobErr *domain.JobFailedError
		if errors.As(err, &jobErr) && jobErr.ExitCode > 0 {
			code = jobErr.ExitCode
		}
		return res, h.abort(logger, res, err, code)
	}

	h.advance(res, run.ComputingTruth, "Generating truth data")
	truth, err := NewGroundTruthComputer(h.cfg.InputDir, h.cfg.TruthFile, logger).ComputeAndPersist()
	switch {
	case errors.Is(err, domain.ErrInputDirectoryMissing):
		logger.Warn("Input directory not found, ground truth is empty", "error", err)
	case err != nil:
		return res, h.abort(logger, res, err, ExitFailed)
	}
	res.TruthFile = h.cfg.TruthFile
	if ctx.Err() != nil {
		return res, h.interrupt(logger, res, ctx.Err())
	}

	h.advance(res, run.Validating, "Validating MapReduce output")
	validator := NewOutputValidator(h.outputDir(jobCfg), h.cfg.FailuresFile, logger)
	failures, err := validator.Validate(truth)
	switch {
	case errors.Is(err, domain.ErrOutputDirectoryMissing):
		logger.Warn("Output directory not found, every expected token is missing", "error", err)
	case err != nil:
		return res, h.abort(logger, res, err, ExitFailed)
	}
	res.Failures = failures
	res.FailuresFile = h.cfg.FailuresFile

	if len(failures) == 0 {
		h.advance(res, run.Passed, "All output validated successfully")
		res.ExitCode = ExitPassed
		fmt.Fprintln(h.out, "\n✅ MapReduce test completed successfully!")
		return res, nil
	}
	PrintFailureSummary(h.out, failures, h.cfg.FailuresFile)
	h.advance(res, run.Failed, fmt.Sprintf("%d validation failures", len(failures)))
	res.ExitCode = ExitFailed
	fmt.Fprintln(h.out, "\n❌ MapReduce test completed with errors")
	return res, nil
}

// runJob lanza el driver y, si procede, el inyector de fallos en paralelo. El
// inyector se espera antes de dar el job por terminado.
func (h *Harness) runJob(ctx context.Context, logger ports.Logger, res *run.Result, jobCfg domain.JobConfig, fleet *FleetManager) error {
	driver := NewJobDriver(h.cfg.DriverBinary, h.cfg.BinDir, h.launcher, logger)
	proc, err := driver.Start(ctx, jobCfg.Path)
	if err != nil {
		return err
	}

	injectCtx, cancelInjection := context.WithCancel(ctx)
	defer cancelInjection()
	injector := NewFaultInjector(h.cfg.FaultTolerance, h.cfg.KillDelay, fleet, logger)
	injection := injector.Start(injectCtx, proc.Done())

	if err := driver.Wait(ctx, proc); err != nil {
		cancelInjection()
		<-injection
		return err
	}

	if inj, ok := <-injection; ok && inj.Killed {
		killed := inj.Worker
		res.KilledWorker = &killed
	}
	logger.Info("MapReduce execution completed")
	return nil
}

func (h *Harness) outputDir(jobCfg domain.JobConfig) string {
	if h.cfg.OutputDir != "" {
		return h.cfg.OutputDir
	}
	dir := jobCfg.OutputDir()
	if dir == "" {
		dir = defaultOutputDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(h.cfg.BinDir, dir)
}

func (h *Harness) advance(res *run.Result, to run.Phase, message string) {
	from := res.Phase
	if !run.ValidPhaseTransition(from, to) {
		h.logger.Error("Invalid phase transition", "from", from.String(), "to", to.String())
		return
	}
	if to.IsTerminal() {
		res.Finish(to, message)
	} else {
		res.Phase = to
	}
	h.logger.Info(message+"...", "run_id", res.ID.String(), "phase", to.String())

	event := run.PhaseEvent{RunID: res.ID, From: from, To: to, Timestamp: time.Now(), Message: message}
	for _, o := range h.observers {
		o.Notify(event)
	}
}

func (h *Harness) abort(logger ports.Logger, res *run.Result, err error, exitCode int) error {
	logger.Error("Run aborted", "phase", res.Phase.String(), "error", err)
	res.ExitCode = exitCode
	h.advance(res, run.Aborted, err.Error())
	return err
}

func (h *Harness) interrupt(logger ports.Logger, res *run.Result, err error) error {
	logger.Warn("Test interrupted by user", "phase", res.Phase.String())
	res.ExitCode = ExitInterrupted
	h.advance(res, run.Interrupted, "Test interrupted by user")
	fmt.Fprintln(h.out, "\nTest interrupted by user")
	return errors.Wrap(err, "run interrupted")
}

func (h *Harness) persist(logger ports.Logger, res *run.Result) {
	if h.runs == nil {
		return
	}
	if err := h.runs.Save(res); err != nil {
		logger.Warn("Failed to persist run result", "error", err)
	}
}
