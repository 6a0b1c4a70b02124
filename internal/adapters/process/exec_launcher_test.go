package process

import (
	"context"
	"os"
	"testing"
	"time"

	"dev.rubentxu.mr-harness/internal/adapters/logger"
	"dev.rubentxu.mr-harness/internal/core/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

func TestExecLauncher(t *testing.T) {
	requireShell(t)

	t.Run("Reports the exit code and logs output lines", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		launcher := NewExecLauncher(logger.NewFromZap(zap.New(core)))

		p, err := launcher.Start(context.Background(), domain.ProcessSpec{
			Name:    "driver",
			Command: []string{"/bin/sh", "-c", "echo hola; echo $GREETING >&2; exit 3"},
			EnvVars: map[string]string{"GREETING": "adios"},
		})
		require.NoError(t, err)
		require.NotZero(t, p.PID())

		code, err := p.Wait()
		require.NoError(t, err)
		require.Equal(t, 3, code)

		require.Equal(t, 1, logs.FilterMessage("hola").Len())
		stderrLines := logs.FilterMessage("adios").All()
		require.Len(t, stderrLines, 1)
		require.Equal(t, true, stderrLines[0].ContextMap()["stderr"])
		require.Equal(t, "driver", stderrLines[0].ContextMap()["process"])
	})

	t.Run("Terminate stops a long running process", func(t *testing.T) {
		launcher := NewExecLauncher(logger.NewNopLogger())
		p, err := launcher.Start(context.Background(), domain.ProcessSpec{
			Name:    "worker",
			Command: []string{"/bin/sh", "-c", "exec sleep 30"},
		})
		require.NoError(t, err)

		require.NoError(t, p.Terminate())
		select {
		case <-p.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("process did not exit after SIGTERM")
		}
		code, err := p.Wait()
		require.NoError(t, err)
		require.Equal(t, -1, code)

		require.ErrorIs(t, p.Kill(), os.ErrProcessDone)
	})

	t.Run("Runs in the working directory", func(t *testing.T) {
		dir := t.TempDir()
		launcher := NewExecLauncher(logger.NewNopLogger())
		p, err := launcher.Start(context.Background(), domain.ProcessSpec{
			Command:    []string{"/bin/sh", "-c", "touch marker"},
			WorkingDir: dir,
		})
		require.NoError(t, err)
		code, err := p.Wait()
		require.NoError(t, err)
		require.Zero(t, code)
		require.FileExists(t, dir+"/marker")
	})

	t.Run("Missing binary fails to start", func(t *testing.T) {
		launcher := NewExecLauncher(logger.NewNopLogger())
		_, err := launcher.Start(context.Background(), domain.ProcessSpec{
			Command: []string{"/nonexistent/mr_worker", "localhost:50051"},
		})
		require.Error(t, err)
	})

	t.Run("Empty command is rejected", func(t *testing.T) {
		launcher := NewExecLauncher(logger.NewNopLogger())
		_, err := launcher.Start(context.Background(), domain.ProcessSpec{})
		require.Error(t, err)
	})
}
