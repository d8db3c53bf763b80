package supervisor

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/svcwrap/svcwrap/internal/config"
	"github.com/svcwrap/svcwrap/internal/env"
	"github.com/svcwrap/svcwrap/internal/logging"
)

// pollInterval is how often the graceful-stop loop re-checks the child.
const pollInterval = 50 * time.Millisecond

// reapTimeout bounds how long a forced kill may take to be confirmed.
const reapTimeout = 2 * time.Second

// ErrChildAlive is returned by Spawn when the previous child has not been
// confirmed terminated yet.
var ErrChildAlive = errors.New("previous child process is still alive")

// StopOutcome is the result of a graceful stop: either the child exited
// within the deadline or the whole tree was forcibly killed.
type StopOutcome struct {
	Forced bool
	Record ExitRecord
}

// Supervisor owns the spawn/signal/kill lifecycle of exactly one child
// process tree at a time.
type Supervisor struct {
	sink *logging.Sink
	env  *env.Env

	mu     sync.Mutex
	handle *Handle
}

func New(sink *logging.Sink) *Supervisor {
	return &Supervisor{sink: sink, env: env.New()}
}

// Spawn starts the configured command in its own process group with the
// merged environment and working directory, applies the priority class
// best-effort, and forwards output lines to the sink. It fails if the
// previous child is still alive.
func (s *Supervisor) Spawn(cfg *config.Config) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != nil {
		if _, done := s.handle.Exited(); !done {
			return nil, ErrChildAlive
		}
	}

	// #nosec G204 -- running an operator-supplied command is the whole point
	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = cfg.WorkDir
	cmd.Env = s.env.Merge(cfg.Env, cfg.Path)
	setProcAttrs(cmd)

	var outW, errW *lineWriter
	if s.sink.ChildOutputEnabled() {
		outW = &lineWriter{sink: s.sink, stream: "stdout"}
		errW = &lineWriter{sink: s.sink, stream: "stderr"}
		cmd.Stdout = outW
		cmd.Stderr = errW
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", cfg.Command[0], err)
	}

	logger := s.sink.Logger()
	if cfg.Priority != nil {
		if err := applyPriority(cmd.Process.Pid, *cfg.Priority); err != nil {
			logger.Warn("failed to set process priority",
				"pid", cmd.Process.Pid, "priority", cfg.Priority.String(), "error", err)
		}
	}

	h := &Handle{
		cmd:       cmd,
		pid:       cmd.Process.Pid,
		startedAt: time.Now(),
		waitDone:  make(chan struct{}),
	}
	if st := processStartTime(h.pid); !st.IsZero() {
		h.startedAt = st
	}
	go func() {
		err := cmd.Wait()
		if outW != nil {
			outW.flush()
		}
		if errW != nil {
			errW.flush()
		}
		h.finish(err)
	}()

	s.handle = h
	logger.Info("child started", "pid", h.pid, "command", cfg.Command[0])
	return h, nil
}

// GracefulStop sends the cooperative termination signal to the child's
// process group, polls for exit until the deadline (invoking onTick on each
// poll so the caller can report progress), and escalates to a forced kill of
// the whole tree when the deadline passes. A delivery failure on an
// already-gone process is treated as success; a failed forced kill is fatal.
func (s *Supervisor) GracefulStop(h *Handle, timeout time.Duration, onTick func()) (StopOutcome, error) {
	if rec, ok := h.Exited(); ok {
		return StopOutcome{Record: rec}, nil
	}
	logger := s.sink.Logger()
	if err := interruptGroup(h.pid); err != nil {
		// The process may already be gone; the kill path below settles it.
		logger.Warn("termination signal not delivered", "pid", h.pid, "error", err)
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if rec, ok := h.Exited(); ok {
			logger.Info("child exited within grace period", "pid", h.pid, "code", rec.Code)
			return StopOutcome{Record: rec}, nil
		}
		if onTick != nil {
			onTick()
		}
		time.Sleep(pollInterval)
	}
	if rec, ok := h.Exited(); ok {
		return StopOutcome{Record: rec}, nil
	}
	logger.Warn("grace period elapsed, killing process tree", "pid", h.pid, "timeout", timeout)
	if err := s.Kill(h); err != nil {
		return StopOutcome{}, err
	}
	return StopOutcome{Forced: true, Record: h.Wait()}, nil
}

// Kill forcibly terminates the child's whole process tree and waits for the
// exit to be confirmed. An error means the resource could not be reclaimed.
func (s *Supervisor) Kill(h *Handle) error {
	if _, ok := h.Exited(); ok {
		return nil
	}
	h.markKilled()
	if err := killTree(h.pid); err != nil {
		return fmt.Errorf("force kill pid %d: %w", h.pid, err)
	}
	select {
	case <-h.waitDone:
		return nil
	case <-time.After(reapTimeout):
		return fmt.Errorf("process %d still running after forced kill", h.pid)
	}
}
