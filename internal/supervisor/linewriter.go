package supervisor

import (
	"bytes"
	"strings"
	"sync"

	"github.com/svcwrap/svcwrap/internal/logging"
)

// lineWriter splits a child output stream into lines for the log sink.
// os/exec copies pipe data into it from an internal goroutine, so Write must
// be safe against the final flush after Wait returns.
type lineWriter struct {
	sink   *logging.Sink
	stream string

	mu  sync.Mutex
	buf []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(string(w.buf[:i]), "\r")
		w.buf = w.buf[i+1:]
		w.sink.ChildLine(w.stream, line)
	}
	w.mu.Unlock()
	return len(p), nil
}

// flush emits a trailing partial line once the child has exited.
func (w *lineWriter) flush() {
	w.mu.Lock()
	if len(w.buf) > 0 {
		w.sink.ChildLine(w.stream, strings.TrimSuffix(string(w.buf), "\r"))
		w.buf = nil
	}
	w.mu.Unlock()
}
