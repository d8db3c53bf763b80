//go:build !windows

package hostsvc

import (
	"syscall"
	"testing"
	"time"

	"github.com/svcwrap/svcwrap/internal/config"
	"github.com/svcwrap/svcwrap/internal/engine"
	"github.com/svcwrap/svcwrap/internal/logging"
	"github.com/svcwrap/svcwrap/internal/supervisor"
)

func buildFor(t *testing.T, cfg *config.Config) BuildFunc {
	t.Helper()
	sink, err := logging.New(cfg.Name, logging.Config{Disabled: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sink.Close() })
	return func(h engine.Host, _ []string) *engine.Engine {
		return engine.New(cfg, supervisor.New(sink), sink, h)
	}
}

func TestRunConsoleReturnsChildCode(t *testing.T) {
	cfg := &config.Config{Name: "t", Command: []string{"/bin/sh", "-c", "exit 4"},
		StopTimeout: time.Second}
	if code := Run("t", buildFor(t, cfg)); code != 4 {
		t.Fatalf("exit code = %d, want 4", code)
	}
}

func TestRunConsoleStopsOnSignal(t *testing.T) {
	cfg := &config.Config{Name: "t",
		Command:     []string{"/bin/sh", "-c", `trap 'exit 0' TERM; while :; do sleep 0.05; done`},
		StopTimeout: 5 * time.Second}

	done := make(chan int, 1)
	go func() { done <- Run("t", buildFor(t, cfg)) }()

	// Give the engine time to spawn the shell and install its trap, then
	// deliver the signal this process would get from the init system.
	time.Sleep(500 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("exit code = %d, want 0", code)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("SIGTERM did not stop the service")
	}
}

func TestInteractive(t *testing.T) {
	if !Interactive() {
		t.Error("test process misdetected as a service")
	}
}
