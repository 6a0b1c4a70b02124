package usecase

import (
	"context"

	"dev.rubentxu.mr-harness/internal/core/domain"
	"dev.rubentxu.mr-harness/internal/core/ports"
	"github.com/pkg/errors"
)

// JobDriver lanza el coordinador externo del job y espera a que termine.
type JobDriver struct {
	Binary     string
	WorkingDir string
	launcher   ports.ProcessLauncher
	logger     ports.Logger
}

func NewJobDriver(binary, workingDir string, launcher ports.ProcessLauncher, logger ports.Logger) *JobDriver {
	return &JobDriver{
		Binary:     binary,
		WorkingDir: workingDir,
		launcher:   launcher,
		logger:     logger.With("component", "job_driver"),
	}
}

// Start lanza "<driver> <configPath>". El proceso devuelto se espera con Wait.
func (d *JobDriver) Start(ctx context.Context, configPath string) (ports.Process, error) {
	d.logger.Info("Running MapReduce demo...", "binary", d.Binary, "config", configPath)
	proc, err := d.launcher.Start(ctx, domain.ProcessSpec{
		Name:       "driver",
		Command:    []string{d.Binary, configPath},
		WorkingDir: d.WorkingDir,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start job driver %s", d.Binary)
	}
	d.logger.Debug("Job driver started", "pid", proc.PID())
	return proc, nil
}

// Wait bloquea hasta que el driver termina. Un código de salida no cero se
// devuelve como *domain.JobFailedError. Si ctx se cancela, el driver recibe
// SIGTERM y se devuelve el error del contexto.
func (d *JobDriver) Wait(ctx context.Context, proc ports.Process) error {
	select {
	case <-proc.Done():
	case <-ctx.Done():
		d.logger.Warn("Interrupted while waiting for job driver, terminating it", "pid", proc.PID())
		if err := proc.Terminate(); err != nil {
			d.logger.Debug("Job driver already gone", "pid", proc.PID(), "error", err)
		}
		return ctx.Err()
	}

	exitCode, err := proc.Wait()
	if err != nil {
		return errors.Wrap(err, "failed waiting for job driver")
	}
	if exitCode != 0 {
		d.logger.Error("Error running MapReduce demo", "exit_code", exitCode)
		return &domain.JobFailedError{ExitCode: exitCode}
	}
	d.logger.Debug("Job driver exited cleanly", "pid", proc.PID())
	return nil
}

// Run combina Start y Wait.
func (d *JobDriver) Run(ctx context.Context, configPath string) error {
	proc, err := d.Start(ctx, configPath)
	if err != nil {
		return err
	}
	if err := d.Wait(ctx, proc); err != nil {
		return err
	}
	d.logger.Info("MapReduce execution completed")
	return nil
}
