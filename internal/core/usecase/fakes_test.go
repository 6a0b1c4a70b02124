package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"dev.rubentxu.mr-harness/internal/adapters/logger"
	"dev.rubentxu.mr-harness/internal/core/domain"
	"dev.rubentxu.mr-harness/internal/core/ports"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testLogger(t *testing.T) ports.Logger {
	return logger.NewFromZap(zaptest.NewLogger(t))
}

// event es una entrada del registro temporal de la doble de procesos.
type event struct {
	Kind        string
	Name        string
	At          time.Time
	DriverAlive bool
}

type eventLog struct {
	mu     sync.Mutex
	events []event
}

func (l *eventLog) add(e event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.At = time.Now()
	l.events = append(l.events, e)
}

func (l *eventLog) all() []event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]event(nil), l.events...)
}

func (l *eventLog) find(kind string) (event, bool) {
	for _, e := range l.all() {
		if e.Kind == kind {
			return e, true
		}
	}
	return event{}, false
}

type fakeProcess struct {
	pid      int
	name     string
	launcher *fakeLauncher

	mu         sync.Mutex
	exitCode   int
	terminated bool
	killed     bool
	done       chan struct{}
	closeOnce  sync.Once
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) exit(code int) {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.exitCode = code
		p.mu.Unlock()
		close(p.done)
	})
}

func (p *fakeProcess) alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *fakeProcess) Terminate() error {
	if !p.alive() {
		return os.ErrProcessDone
	}
	p.mu.Lock()
	p.terminated = true
	p.mu.Unlock()
	p.launcher.events.add(event{Kind: "terminate", Name: p.name})
	p.exit(143)
	return nil
}

func (p *fakeProcess) Kill() error {
	if !p.alive() {
		return os.ErrProcessDone
	}
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()
	p.launcher.events.add(event{Kind: "kill", Name: p.name, DriverAlive: p.launcher.driverAlive()})
	p.exit(-1)
	return nil
}

func (p *fakeProcess) Wait() (int, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, nil
}

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) wasTerminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

func (p *fakeProcess) wasKilled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// fakeLauncher simula workers que viven hasta recibir una señal y un driver
// cuyo comportamiento decide onDriver.
type fakeLauncher struct {
	mu       sync.Mutex
	nextPID  int
	workers  []*fakeProcess
	driver   *fakeProcess
	failFor  map[string]bool
	onDriver func(p *fakeProcess)
	events   *eventLog
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{
		nextPID: 1000,
		failFor: make(map[string]bool),
		events:  &eventLog{},
	}
}

func (l *fakeLauncher) Start(ctx context.Context, spec domain.ProcessSpec) (ports.Process, error) {
	arg := spec.Command[len(spec.Command)-1]
	if l.failFor[arg] {
		return nil, fmt.Errorf("exec %s: no such file", spec.Command[0])
	}

	l.mu.Lock()
	l.nextPID++
	p := &fakeProcess{pid: l.nextPID, name: spec.Name, launcher: l, done: make(chan struct{})}
	isDriver := spec.Name == "driver"
	if isDriver {
		l.driver = p
	} else {
		l.workers = append(l.workers, p)
	}
	l.mu.Unlock()

	l.events.add(event{Kind: "start", Name: spec.Name})
	if isDriver && l.onDriver != nil {
		l.onDriver(p)
	}
	return p, nil
}

func (l *fakeLauncher) driverAlive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.driver != nil && l.driver.alive()
}

func (l *fakeLauncher) startedWorkers() []*fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeProcess(nil), l.workers...)
}

// driverExitsAfter hace que el driver termine con code pasado d.
func driverExitsAfter(l *fakeLauncher, d time.Duration, code int) func(p *fakeProcess) {
	return func(p *fakeProcess) {
		go func() {
			select {
			case <-time.After(d):
				l.events.add(event{Kind: "driver-exit", Name: p.name})
				p.exit(code)
			case <-p.done:
			}
		}()
	}
}

// project crea la disposición <base>/bin/{config.ini,input,output}.
type project struct {
	base string
	cfg  HarnessConfig
}

func newProject(t *testing.T, config string, inputs, outputs map[string]string) project {
	t.Helper()
	base := t.TempDir()
	cfg := DefaultHarnessConfig(base)
	cfg.DriverBinary = "mrdemo"
	cfg.Fleet.WorkerBinary = "mr_worker"
	cfg.Fleet.SettleInterval = 10 * time.Millisecond
	cfg.Fleet.TerminateGrace = 500 * time.Millisecond

	require.NoError(t, os.MkdirAll(cfg.BinDir, 0o755))
	if config != "" {
		require.NoError(t, os.WriteFile(cfg.ConfigFile, []byte(config), 0o644))
	}
	writeFiles(t, cfg.InputDir, inputs)
	writeFiles(t, filepath.Join(cfg.BinDir, "output"), outputs)
	return project{base: base, cfg: cfg}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if files == nil {
		return
	}
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

const sampleConfig = `// MapReduce job
n_workers=3
worker_ipaddr_ports=localhost:50051,localhost:50052,localhost:50053
input_files=input/testdata_1.txt
output_dir=output
n_output_files=2
map_kilobytes=50
user_id=cs6210
`
