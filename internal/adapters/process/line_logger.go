package process

import (
	"bytes"
	"sync"

	"dev.rubentxu.mr-harness/internal/core/ports"
)

const maxPartialLine = 64 * 1024

// lineLogger es el io.Writer que recibe stdout o stderr del proceso hijo y
// emite una entrada de log por línea. Las líneas que llegan antes de bind se
// retienen hasta conocer el logger con el pid.
type lineLogger struct {
	mu       sync.Mutex
	isStderr bool
	logger   ports.Logger
	buf      []byte
	pending  []string
}

func newLineLogger(isStderr bool) *lineLogger {
	return &lineLogger{isStderr: isStderr}
}

func (w *lineLogger) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, b...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emitLocked(string(bytes.TrimRight(w.buf[:i], "\r")))
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) > maxPartialLine {
		w.emitLocked(string(w.buf))
		w.buf = nil
	}
	return len(b), nil
}

func (w *lineLogger) bind(logger ports.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logger = logger
	for _, line := range w.pending {
		w.emitLocked(line)
	}
	w.pending = nil
}

func (w *lineLogger) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emitLocked(string(w.buf))
		w.buf = nil
	}
}

func (w *lineLogger) emitLocked(line string) {
	if line == "" {
		return
	}
	if w.logger == nil {
		w.pending = append(w.pending, line)
		return
	}
	w.logger.Info(line, "stderr", w.isStderr)
}
