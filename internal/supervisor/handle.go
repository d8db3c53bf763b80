package supervisor

import (
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// ExitReason classifies how a child lifetime ended.
type ExitReason int

const (
	// ReasonNormal means the child exited on its own.
	ReasonNormal ExitReason = iota
	// ReasonKilled means the child was terminated by a signal or forced kill.
	ReasonKilled
	// ReasonSpawnFailed means the child never started.
	ReasonSpawnFailed
)

func (r ExitReason) String() string {
	switch r {
	case ReasonKilled:
		return "killed"
	case ReasonSpawnFailed:
		return "spawn-failed"
	default:
		return "normal"
	}
}

// ExitRecord is produced exactly once per child lifetime.
type ExitRecord struct {
	Code   int
	Reason ExitReason
}

// Handle represents one live child process and its descendant tree. It is
// owned exclusively by the supervisor; at most one live Handle exists at a
// time. The wait goroutine is the only writer of the exit record and closes
// waitDone when the child has been reaped.
type Handle struct {
	cmd       *exec.Cmd
	pid       int
	startedAt time.Time
	waitDone  chan struct{}

	mu     sync.Mutex
	rec    ExitRecord
	killed bool
}

// PID returns the child's process id.
func (h *Handle) PID() int { return h.pid }

// StartedAt returns when the child started.
func (h *Handle) StartedAt() time.Time { return h.startedAt }

// Exited reports whether the child has been reaped, and its exit record.
// It never blocks.
func (h *Handle) Exited() (ExitRecord, bool) {
	select {
	case <-h.waitDone:
		h.mu.Lock()
		rec := h.rec
		h.mu.Unlock()
		return rec, true
	default:
		return ExitRecord{}, false
	}
}

// Wait blocks until the child has been reaped and returns its exit record.
func (h *Handle) Wait() ExitRecord {
	<-h.waitDone
	h.mu.Lock()
	rec := h.rec
	h.mu.Unlock()
	return rec
}

func (h *Handle) markKilled() {
	h.mu.Lock()
	h.killed = true
	h.mu.Unlock()
}

// finish records the exit outcome and releases waiters. Called exactly once,
// by the reap goroutine, after cmd.Wait returns.
func (h *Handle) finish(waitErr error) {
	h.mu.Lock()
	rec := ExitRecord{Reason: ReasonNormal}
	ps := h.cmd.ProcessState
	if ps != nil {
		rec.Code = ps.ExitCode()
		if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			rec.Reason = ReasonKilled
		}
	} else if waitErr != nil {
		rec.Code = -1
	}
	if h.killed {
		rec.Reason = ReasonKilled
	}
	h.rec = rec
	h.mu.Unlock()
	close(h.waitDone)
}
