// Package hostsvc adapts the lifecycle engine to the host it runs under:
// the Windows service control manager when started by it, or a plain console
// process driven by termination signals everywhere else.
package hostsvc

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/svcwrap/svcwrap/internal/engine"
)

// BuildFunc constructs the engine against the host the runner selected.
// startArgs are the start arguments the service manager was invoked with;
// empty everywhere but under the SCM.
type BuildFunc func(host engine.Host, startArgs []string) *engine.Engine

// consoleHost accepts reports without forwarding them anywhere; in console
// mode there is no manager waiting on checkpoints, and the engine's own log
// already carries every transition.
type consoleHost struct{}

func (consoleHost) Report(engine.Status) error { return nil }

// RunConsole supervises in the foreground, translating SIGTERM and SIGINT
// into stop requests. Used when no service manager started the process, or
// when the operator forces console mode.
func RunConsole(build BuildFunc) int {
	eng := build(consoleHost{}, nil)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for range sigs {
			eng.OnControl(engine.ControlStop)
		}
	}()

	code := eng.Run()
	signal.Stop(sigs)
	close(sigs)
	return code
}
