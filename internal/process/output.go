package process

import (
	"bytes"
	"sync"
)

// maxLineLength bounds a single log entry. Longer lines, terminated or not,
// are logged in chunks of at most this size.
const maxLineLength = 4096

// lineLogger is an io.Writer that logs each complete line of child output.
type lineLogger struct {
	logger Logger
	name   string
	stream string

	mu  sync.Mutex
	buf bytes.Buffer
}

func newLineLogger(logger Logger, name, stream string) *lineLogger {
	return &lineLogger{logger: logger, name: name, stream: stream}
}

// Write implements io.Writer. It never fails.
func (w *lineLogger) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// Partial line: log full chunks now, keep the rest for the next write.
			for len(line) >= maxLineLength {
				w.emit(line[:maxLineLength])
				line = line[maxLineLength:]
			}
			w.buf.Write(line)
			break
		}
		w.emitChunked(bytes.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush logs any buffered partial line.
func (w *lineLogger) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.Bytes())
		w.buf.Reset()
	}
}

func (w *lineLogger) emitChunked(line []byte) {
	for len(line) > maxLineLength {
		w.emit(line[:maxLineLength])
		line = line[maxLineLength:]
	}
	w.emit(line)
}

func (w *lineLogger) emit(line []byte) {
	w.logger.Debug("process output",
		"name", w.name,
		"stream", w.stream,
		"output", string(line),
	)
}
