//go:build windows

package hostsvc

import (
	"time"

	"golang.org/x/sys/windows/svc"

	"github.com/svcwrap/svcwrap/internal/engine"
)

// Run executes the engine under the service control manager when the SCM
// started this process, and in console mode otherwise.
func Run(name string, build BuildFunc) int {
	isService, err := svc.IsWindowsService()
	if err != nil || !isService {
		return RunConsole(build)
	}
	h := &scmHandler{build: build}
	if err := svc.Run(name, h); err != nil {
		return engine.ExitReportFailed
	}
	return h.exitCode
}

// Interactive reports whether the process was started from a console rather
// than the SCM.
func Interactive() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return true
	}
	return !isService
}

// scmHandler pumps SCM change requests into the engine while the engine
// reports status back through scmHost.
type scmHandler struct {
	build    BuildFunc
	exitCode int
}

func (h *scmHandler) Execute(args []string, req <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	// args[0] is the service name; the rest are the start arguments given
	// to the manager, which --pass-start-args appends to the command.
	var startArgs []string
	if len(args) > 1 {
		startArgs = args[1:]
	}
	eng := h.build(&scmHost{status: status}, startArgs)

	done := make(chan int, 1)
	go func() { done <- eng.Run() }()

	for {
		select {
		case c := <-req:
			switch c.Cmd {
			case svc.Interrogate:
				eng.OnControl(engine.ControlInterrogate)
			case svc.Stop:
				eng.OnControl(engine.ControlStop)
			case svc.Shutdown:
				eng.OnControl(engine.ControlShutdown)
			case svc.Pause, svc.Continue:
				eng.OnControl(engine.ControlPauseContinue)
				// The SCM expects the unchanged status echoed back.
				status <- c.CurrentStatus
			}
		case code := <-done:
			h.exitCode = code
			if code == 0 {
				return false, 0
			}
			return true, uint32(code)
		}
	}
}

// scmHost translates engine status reports into SCM status messages.
type scmHost struct {
	status chan<- svc.Status
}

func (s *scmHost) Report(st engine.Status) error {
	out := svc.Status{
		State:      scmState(st.State),
		CheckPoint: st.Checkpoint,
		WaitHint:   uint32(st.WaitHint / time.Millisecond),
	}
	if st.State == engine.StateRunning {
		out.Accepts = svc.AcceptStop | svc.AcceptShutdown | svc.AcceptPauseAndContinue
	}
	s.status <- out
	return nil
}

func scmState(s engine.State) svc.State {
	switch s {
	case engine.StateInitializing:
		return svc.StartPending
	case engine.StateRunning:
		return svc.Running
	default:
		// Both stopping phases and the terminal states map to StopPending;
		// the svc package emits the final Stopped itself when Execute
		// returns.
		return svc.StopPending
	}
}
