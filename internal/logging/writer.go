package logging

import (
	"os"
	"sync"
	"time"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// rotatingWriter wraps a lumberjack logger and applies the configured
// rotation trigger. Lumberjack only rotates on whole-megabyte thresholds, so
// byte thresholds and calendar boundaries are checked here before each write
// and trigger an explicit Rotate.
type rotatingWriter struct {
	mu       sync.Mutex
	lj       *lj.Logger
	rotation Rotation
	size     int64 // bytes written to the current file; -1 until probed
	lastUnix int64 // time of the previous write, unix seconds
	now      func() time.Time
}

func newRotatingWriter(filename string, rotation Rotation, retain int) *rotatingWriter {
	if retain < 0 {
		retain = DefaultRetain
	}
	return &rotatingWriter{
		lj: &lj.Logger{
			Filename: filename,
			// Effectively unlimited; rotation is driven by this wrapper.
			MaxSize:    1 << 20,
			MaxBackups: retain,
		},
		rotation: rotation,
		size:     -1,
		now:      time.Now,
	}
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size < 0 {
		w.size = 0
		if fi, err := os.Stat(w.lj.Filename); err == nil {
			w.size = fi.Size()
		}
	}
	now := w.now()
	if w.shouldRotate(now, int64(len(p))) {
		if err := w.lj.Rotate(); err == nil {
			w.size = 0
		}
	}
	w.lastUnix = now.Unix()
	n, err := w.lj.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) shouldRotate(now time.Time, incoming int64) bool {
	if limit := w.rotation.byteLimit(); limit > 0 {
		return w.size > 0 && w.size+incoming > limit
	}
	if w.lastUnix == 0 {
		return false
	}
	last := time.Unix(w.lastUnix, 0)
	switch w.rotation.kind {
	case rotateDaily:
		ly, lm, ld := last.Date()
		ny, nm, nd := now.Date()
		return ly != ny || lm != nm || ld != nd
	case rotateHourly:
		return last.Truncate(time.Hour) != now.Truncate(time.Hour)
	}
	return false
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lj.Close()
}
