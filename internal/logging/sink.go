package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Config describes where and how the wrapper and the wrapped command log.
type Config struct {
	Disabled   bool     // disable all wrapper logging
	NoChildLog bool     // do not log the wrapped command's output
	Dir        string   // log directory; defaults to the executable's directory
	As         string   // base name override for the main log file
	ChildAs    string   // separate log file base name for the command's output
	Rotation   Rotation // rotation trigger
	Retain     int      // rotated files to keep
}

// Sink is the logging destination for engine events and child output. The
// wrapper's own events go through a slog logger; the wrapped command's
// stdout/stderr lines are either tagged into the same file or written as-is
// to a separate one when ChildAs is set.
type Sink struct {
	logger *slog.Logger
	main   *rotatingWriter
	child  *rotatingWriter
	mirror io.Writer
	cfg    Config
}

// New builds a sink for the named service. When console is non-nil (running
// outside a service manager), wrapper events are mirrored to it.
func New(serviceName string, cfg Config, console io.Writer) (*Sink, error) {
	s := &Sink{mirror: console, cfg: cfg}
	if cfg.Disabled {
		out := io.Discard
		if console != nil {
			out = console
		}
		s.logger = slog.New(slog.NewTextHandler(out, nil))
		return s, nil
	}

	dir := cfg.Dir
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve default log dir: %w", err)
		}
		dir = filepath.Dir(exe)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	base := cfg.As
	if base == "" {
		base = "svcwrap_for_" + serviceName
	}
	s.main = newRotatingWriter(filepath.Join(dir, base+".log"), cfg.Rotation, cfg.Retain)
	if cfg.ChildAs != "" && !cfg.NoChildLog {
		s.child = newRotatingWriter(filepath.Join(dir, cfg.ChildAs+".log"), cfg.Rotation, cfg.Retain)
	}

	var out io.Writer = s.main
	if console != nil {
		out = io.MultiWriter(s.main, console)
	}
	s.logger = slog.New(slog.NewTextHandler(out, nil))
	return s, nil
}

// Logger returns the wrapper's structured logger.
func (s *Sink) Logger() *slog.Logger { return s.logger }

// ChildOutputEnabled reports whether child stdout/stderr should be captured.
func (s *Sink) ChildOutputEnabled() bool {
	return !s.cfg.Disabled && !s.cfg.NoChildLog
}

// ChildLine records one line of the wrapped command's output. With a separate
// child log the line is written verbatim; otherwise it is tagged into the
// main log.
func (s *Sink) ChildLine(stream, line string) {
	if !s.ChildOutputEnabled() {
		return
	}
	if s.child != nil {
		_, _ = s.child.Write([]byte(line + "\n"))
		return
	}
	s.logger.Info(line, "stream", stream)
}

// Close flushes and closes the underlying files. It is called before the
// wrapper exits and is safe to call more than once.
func (s *Sink) Close() error {
	var first error
	if s.child != nil {
		if err := s.child.Close(); err != nil && first == nil {
			first = err
		}
		s.child = nil
	}
	if s.main != nil {
		if err := s.main.Close(); err != nil && first == nil {
			first = err
		}
		s.main = nil
	}
	return first
}
