package process

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"dev.rubentxu.mr-harness/internal/core/domain"
	"dev.rubentxu.mr-harness/internal/core/ports"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const outputWaitDelay = 2 * time.Second

// ExecLauncher lanza procesos locales con os/exec y vuelca stdout/stderr,
// línea a línea, en el logger.
type ExecLauncher struct {
	logger ports.Logger
}

func NewExecLauncher(logger ports.Logger) *ExecLauncher {
	return &ExecLauncher{logger: logger.With("component", "exec_launcher")}
}

// Start no ata la vida del proceso a ctx: el harness decide cuándo señalizarlo.
func (l *ExecLauncher) Start(ctx context.Context, spec domain.ProcessSpec) (ports.Process, error) {
	if len(spec.Command) == 0 {
		return nil, errors.New("no command specified")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.WorkingDir
	cmd.Env = os.Environ()
	for k, v := range spec.EnvVars {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	name := spec.Name
	if name == "" {
		name = spec.Command[0]
	}
	stdout := newLineLogger(false)
	stderr := newLineLogger(true)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Un nieto que herede los descriptores no debe bloquear Wait indefinidamente.
	cmd.WaitDelay = outputWaitDelay

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", strings.Join(spec.Command, " "))
	}

	logger := l.logger.With("process", name, "pid", cmd.Process.Pid)
	stdout.bind(logger)
	stderr.bind(logger)

	p := &execProcess{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		p.exitCode, p.err = exitStatus(cmd)
		stdout.flush()
		stderr.flush()
		logger.Debug("Process exited", "exit_code", p.exitCode)
		close(p.done)
	}()
	return p, nil
}

// exitStatus espera al proceso y traduce el resultado a código de salida. Un
// proceso matado por señal da -1.
func exitStatus(cmd *exec.Cmd) (int, error) {
	err := cmd.Wait()
	if err == nil || errors.Is(err, exec.ErrWaitDelay) {
		return cmd.ProcessState.ExitCode(), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

type execProcess struct {
	cmd      *exec.Cmd
	done     chan struct{}
	exitCode int
	err      error
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Terminate() error {
	return p.signal(unix.SIGTERM)
}

func (p *execProcess) Kill() error {
	return p.signal(unix.SIGKILL)
}

func (p *execProcess) signal(sig unix.Signal) error {
	select {
	case <-p.done:
		return os.ErrProcessDone
	default:
	}
	return errors.Wrapf(p.cmd.Process.Signal(sig), "failed to send %s to pid %d", unix.SignalName(sig), p.PID())
}

func (p *execProcess) Wait() (int, error) {
	<-p.done
	return p.exitCode, p.err
}

func (p *execProcess) Done() <-chan struct{} {
	return p.done
}
