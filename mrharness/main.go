package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dev.rubentxu.mr-harness/internal/adapters/console"
	"dev.rubentxu.mr-harness/internal/adapters/logger"
	"dev.rubentxu.mr-harness/internal/adapters/probe"
	"dev.rubentxu.mr-harness/internal/adapters/process"
	"dev.rubentxu.mr-harness/internal/adapters/stats"
	"dev.rubentxu.mr-harness/internal/adapters/store"
	"dev.rubentxu.mr-harness/internal/core/usecase"
)

func main() {
	os.Exit(run())
}

func run() int {
	faultTolerance := flag.Bool("fault-tolerance", false, "Test fault tolerance by killing a worker during execution")
	killDelay := flag.Int("kill-delay", 2, "Seconds to wait before killing a worker")
	baseDir := flag.String("base-dir", defaultBaseDir(), "Project directory containing bin/ (env MR_HARNESS_BASE_DIR)")
	storeType := flag.String("store", string(store.MemoryStore), "Run history store: memory or persistent")
	probeTimeout := flag.Int("probe-timeout", 0, "Seconds to wait for workers to accept connections after start (0 disables)")
	history := flag.Bool("history", false, "List previous runs from the persistent store and exit")
	debug := flag.Bool("debug", false, "Human-readable debug logging")
	flag.Parse()

	zapLogger, err := logger.NewZapLogger(*debug)
	if err != nil {
		log.Printf("Error al crear el logger: %v", err)
		return usecase.ExitFailed
	}
	defer zapLogger.Sync()

	runs, err := store.NewRunRepository(store.StoreType(*storeType), *baseDir, "harness")
	if err != nil {
		zapLogger.Error("Unable to open run store", "error", err)
		return usecase.ExitFailed
	}
	defer runs.Close()

	if *history {
		list, err := runs.List()
		if err != nil {
			zapLogger.Error("Unable to list runs", "error", err)
			return usecase.ExitFailed
		}
		console.PrintHistory(os.Stdout, list)
		return usecase.ExitPassed
	}

	cfg := usecase.DefaultHarnessConfig(*baseDir)
	cfg.FaultTolerance = *faultTolerance
	cfg.KillDelay = time.Duration(*killDelay) * time.Second
	cfg.Fleet.ProbeTimeout = time.Duration(*probeTimeout) * time.Second

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	harness := usecase.NewHarness(cfg, process.NewExecLauncher(zapLogger), zapLogger, os.Stdout,
		usecase.WithProber(probe.NewGRPCProber()),
		usecase.WithRunRepository(runs),
		usecase.WithHostStats(stats.NewProcStats()),
		usecase.WithObserver(console.NewProgressPrinter(os.Stdout)),
	)

	result, err := harness.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	zapLogger.Info("Run finished", "run_id", result.ID.String(), "phase", result.Phase.String(), "exit_code", result.ExitCode, "duration", result.Duration())
	return result.ExitCode
}

func defaultBaseDir() string {
	if dir := os.Getenv("MR_HARNESS_BASE_DIR"); dir != "" {
		return dir
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
