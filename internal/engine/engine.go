package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/svcwrap/svcwrap/internal/config"
	"github.com/svcwrap/svcwrap/internal/history"
	"github.com/svcwrap/svcwrap/internal/logging"
	"github.com/svcwrap/svcwrap/internal/metrics"
	"github.com/svcwrap/svcwrap/internal/restart"
	"github.com/svcwrap/svcwrap/internal/supervisor"
)

const (
	// pollInterval is the supervisory loop's cadence. It must stay well
	// inside the wait hints given to the host, since every pending-phase
	// tick doubles as a heartbeat.
	pollInterval = 50 * time.Millisecond
	// startWaitHint covers spawn plus the first report.
	startWaitHint = 10 * time.Second
	// stopWaitPad is added to the stop timeout in the stop-pending hint so
	// the forced-kill escalation also fits inside it.
	stopWaitPad = 2 * time.Second
	// historyTimeout bounds best-effort audit writes.
	historyTimeout = 2 * time.Second
)

// Engine coordinates the host service manager's control codes with the
// supervised child's lifecycle. Run executes in one goroutine; OnControl is
// called asynchronously from the host's callback context and communicates
// with the loop only through the stop flag and the failure flag; the child
// handle itself is owned exclusively by Run.
type Engine struct {
	cfg  *config.Config
	sup  *supervisor.Supervisor
	sink *logging.Sink
	host Host
	hist history.Sink // optional

	stopRequested atomic.Bool
	reportFailed  atomic.Bool
	checkpoint    atomic.Uint32
	pendingHint   atomic.Int64 // wait hint of the current pending phase

	// reportMu makes taking a checkpoint and delivering it one step, so
	// reports from the supervisory loop and the control context cannot
	// reach the host out of checkpoint order.
	reportMu sync.Mutex

	mu    sync.Mutex
	state State
}

func New(cfg *config.Config, sup *supervisor.Supervisor, sink *logging.Sink, host Host) *Engine {
	return &Engine{cfg: cfg, sup: sup, sink: sink, host: host, state: StateInitializing}
}

// SetHistory attaches an optional lifecycle audit sink.
func (e *Engine) SetHistory(s history.Sink) { e.hist = s }

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// RequestStop flags a stop; equivalent to receiving a Stop control code.
func (e *Engine) RequestStop() { e.OnControl(ControlStop) }

// OnControl handles a control code from the host manager. It never blocks
// and is safe to call concurrently with Run.
func (e *Engine) OnControl(c ControlCode) {
	switch c {
	case ControlStop, ControlShutdown:
		if e.stopRequested.CompareAndSwap(false, true) {
			e.sink.Logger().Info("stop requested", "control", c.String())
		}
	case ControlInterrogate:
		e.reportCurrent()
	default:
		// Acknowledged, not acted upon.
	}
}

// Run supervises child lifetimes until the restart policy or a stop request
// ends the service, and returns the wrapper's final exit code.
func (e *Engine) Run() int {
	logger := e.sink.Logger()
	logger.Info("service starting",
		"name", e.cfg.Name, "command", e.cfg.Command, "policy", e.cfg.Policy.String())
	if !e.reportPending(startWaitHint) {
		return e.finishUnreported(StateFailed, ExitReportFailed)
	}

	firstRun := true
	for {
		if e.stopRequested.Load() {
			logger.Info("stop requested before spawn")
			return e.finish(StateStopped, ExitOK)
		}

		h, err := e.sup.Spawn(e.cfg)
		if err != nil {
			logger.Error("failed to spawn command", "error", err)
			return e.finish(StateFailed, ExitSpawnFailed)
		}
		metrics.IncStart(e.cfg.Name)
		e.record(history.EventChildStart, h.PID(), 0, "")

		if firstRun {
			firstRun = false
			e.transition(StateRunning)
			if !e.reportSteady() {
				_ = e.sup.Kill(h)
				return e.finishUnreported(StateFailed, ExitReportFailed)
			}
		}
		// A restart is the Running self-loop; nothing to report.

		rec, exited := e.superviseOneLifetime(h)
		if e.reportFailed.Load() {
			_ = e.sup.Kill(h)
			return e.finishUnreported(StateFailed, ExitReportFailed)
		}
		if !exited {
			// Stop requested while the child is running; this also covers a
			// stop that arrived during spawn, since the first poll sees it.
			return e.stopChild(h)
		}

		metrics.IncExit(e.cfg.Name, rec.Reason.String())
		e.record(history.EventChildExit, h.PID(), rec.Code, rec.Reason.String())
		switch restart.Decide(rec.Code, e.cfg.Policy, e.cfg.PassCodes) {
		case restart.StopSuccess:
			logger.Info("child exited with a pass code", "code", rec.Code)
			return e.finish(StateStopped, ExitOK)
		case restart.Stop:
			logger.Info("child exited, not restarting", "code", rec.Code)
			return e.finish(StateStopped, rec.Code)
		case restart.Restart:
			logger.Info("child exited, restarting", "code", rec.Code)
			metrics.IncRestart(e.cfg.Name)
			e.sleepRestartDelay()
		}
	}
}

// superviseOneLifetime blocks until the child exits (true) or a stop request
// or report failure interrupts the wait (false).
func (e *Engine) superviseOneLifetime(h *supervisor.Handle) (supervisor.ExitRecord, bool) {
	for {
		if rec, ok := h.Exited(); ok {
			return rec, true
		}
		if e.stopRequested.Load() || e.reportFailed.Load() {
			return supervisor.ExitRecord{}, false
		}
		time.Sleep(pollInterval)
	}
}

// stopChild runs the graceful-stop-then-kill protocol on the current child
// and produces the terminal state and exit code.
func (e *Engine) stopChild(h *supervisor.Handle) int {
	logger := e.sink.Logger()
	e.transition(StateStoppingGraceful)
	hint := e.cfg.StopTimeout + stopWaitPad
	if !e.reportPending(hint) {
		_ = e.sup.Kill(h)
		return e.finishUnreported(StateFailed, ExitReportFailed)
	}

	out, err := e.sup.GracefulStop(h, e.cfg.StopTimeout, func() {
		e.reportPending(hint)
	})
	if err != nil {
		logger.Error("unable to reclaim child process tree", "error", err)
		return e.finish(StateFailed, ExitKillFailed)
	}
	if e.reportFailed.Load() {
		// A progress report failed mid-grace-period; the child is already
		// reclaimed, but the host no longer sees us.
		return e.finishUnreported(StateFailed, ExitReportFailed)
	}
	if out.Forced {
		e.transition(StateStoppingForced)
		metrics.IncForcedKill(e.cfg.Name)
		e.record(history.EventChildExit, h.PID(), out.Record.Code, "forced-kill")
		return e.finish(StateStopped, ExitForcedKill)
	}
	metrics.IncExit(e.cfg.Name, out.Record.Reason.String())
	e.record(history.EventChildExit, h.PID(), out.Record.Code, out.Record.Reason.String())
	return e.finish(StateStopped, out.Record.Code)
}

// sleepRestartDelay applies the configured minimum inter-restart delay,
// still observing stop requests at the poll cadence.
func (e *Engine) sleepRestartDelay() {
	remaining := e.cfg.RestartDelay
	for remaining > 0 && !e.stopRequested.Load() {
		d := pollInterval
		if remaining < d {
			d = remaining
		}
		time.Sleep(d)
		remaining -= d
	}
}

func (e *Engine) transition(to State) {
	e.mu.Lock()
	from := e.state
	e.state = to
	e.mu.Unlock()
	if from == to {
		return
	}
	e.sink.Logger().Info("state transition", "from", from.String(), "to", to.String())
	metrics.Transition(e.cfg.Name, from.String(), to.String())
	e.record(history.EventTransition, 0, 0, "")
}

// finish moves to the terminal state, reports it, and returns the exit code.
func (e *Engine) finish(st State, code int) int {
	e.transition(st)
	e.reportMu.Lock()
	err := e.host.Report(Status{State: st})
	e.reportMu.Unlock()
	if err != nil {
		e.sink.Logger().Error("terminal status report failed", "error", err)
		if code == ExitOK {
			code = ExitReportFailed
		}
	}
	e.sink.Logger().Info("service finished", "state", st.String(), "exit_code", code)
	return code
}

// finishUnreported is the fatal path for report failures: the host is no
// longer reachable, so only the transition is logged.
func (e *Engine) finishUnreported(st State, code int) int {
	e.transition(st)
	e.sink.Logger().Error("terminating without final report", "state", st.String(), "exit_code", code)
	return code
}

// reportPending emits a checkpointed progress report for the current pending
// phase. Returns false (and flags the failure) when the host rejects it.
func (e *Engine) reportPending(hint time.Duration) bool {
	e.reportMu.Lock()
	defer e.reportMu.Unlock()
	e.pendingHint.Store(int64(hint))
	s := Status{State: e.State(), Checkpoint: e.checkpoint.Add(1), WaitHint: hint}
	return e.deliver(s)
}

func (e *Engine) reportSteady() bool {
	e.reportMu.Lock()
	defer e.reportMu.Unlock()
	return e.deliver(Status{State: e.State()})
}

// reportCurrent answers an interrogation with the present state.
func (e *Engine) reportCurrent() {
	e.reportMu.Lock()
	defer e.reportMu.Unlock()
	st := e.State()
	s := Status{State: st}
	if st.Pending() {
		s.Checkpoint = e.checkpoint.Add(1)
		s.WaitHint = time.Duration(e.pendingHint.Load())
	}
	e.deliver(s)
}

func (e *Engine) deliver(s Status) bool {
	if err := e.host.Report(s); err != nil {
		e.sink.Logger().Error("status report failed", "state", s.State.String(), "error", err)
		e.reportFailed.Store(true)
		return false
	}
	return true
}

// record writes a best-effort audit event; failures are logged, never fatal.
func (e *Engine) record(typ history.EventType, pid, exitCode int, detail string) {
	if e.hist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	err := e.hist.Send(ctx, history.Event{
		Type:       typ,
		OccurredAt: time.Now(),
		Service:    e.cfg.Name,
		PID:        pid,
		State:      e.State().String(),
		ExitCode:   exitCode,
		Detail:     detail,
	})
	if err != nil {
		e.sink.Logger().Warn("history event not recorded", "type", string(typ), "error", err)
	}
}
