//go:build !windows

package supervisor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/svcwrap/svcwrap/internal/config"
	"github.com/svcwrap/svcwrap/internal/env"
	"github.com/svcwrap/svcwrap/internal/logging"
)

func newTestSink(t *testing.T) (*logging.Sink, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := logging.New("test", logging.Config{
		Dir:      dir,
		ChildAs:  "child",
		Rotation: logging.DefaultRotation(),
		Retain:   2,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, filepath.Join(dir, "child.log")
}

func shCfg(script string) *config.Config {
	return &config.Config{
		Name:        "test",
		Command:     []string{"/bin/sh", "-c", script},
		StopTimeout: config.DefaultStopTimeout,
	}
}

func TestSpawn_ExitCode(t *testing.T) {
	sink, _ := newTestSink(t)
	s := New(sink)
	h, err := s.Spawn(shCfg("exit 3"))
	if err != nil {
		t.Fatal(err)
	}
	rec := h.Wait()
	if rec.Code != 3 || rec.Reason != ReasonNormal {
		t.Errorf("exit record = %+v, want code 3, reason normal", rec)
	}
}

func TestSpawn_Failure(t *testing.T) {
	sink, _ := newTestSink(t)
	s := New(sink)
	cfg := &config.Config{Name: "test", Command: []string{"/does/not/exist-xyz"}}
	if _, err := s.Spawn(cfg); err == nil {
		t.Fatal("Spawn succeeded for a nonexistent executable")
	}
}

func TestSpawn_SingleLiveHandle(t *testing.T) {
	sink, _ := newTestSink(t)
	s := New(sink)
	h, err := s.Spawn(shCfg("sleep 5"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Spawn(shCfg("true")); err != ErrChildAlive {
		t.Errorf("second Spawn returned %v, want ErrChildAlive", err)
	}
	if err := s.Kill(h); err != nil {
		t.Fatal(err)
	}
	// Once the previous child is confirmed dead a new one may be created.
	h2, err := s.Spawn(shCfg("true"))
	if err != nil {
		t.Fatalf("Spawn after kill: %v", err)
	}
	h2.Wait()
}

func TestSpawn_EnvAndWorkDir(t *testing.T) {
	sink, childLog := newTestSink(t)
	s := New(sink)
	wd := t.TempDir()
	cfg := &config.Config{
		Name:    "test",
		Command: []string{"/bin/sh", "-c", `echo "$SVCWRAP_TEST_VAR"; pwd`},
		WorkDir: wd,
		Env:     []env.Var{{Key: "SVCWRAP_TEST_VAR", Value: "injected"}},
	}
	h, err := s.Spawn(cfg)
	if err != nil {
		t.Fatal(err)
	}
	h.Wait()
	// The exec copy goroutine finishes before Wait returns, but the sink
	// write is synchronous only per line; give the file a beat.
	time.Sleep(50 * time.Millisecond)
	b, err := os.ReadFile(childLog)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	if !strings.Contains(out, "injected") {
		t.Errorf("child did not see the injected variable: %q", out)
	}
	if !strings.Contains(out, wd) {
		t.Errorf("child did not run in the configured workdir: %q", out)
	}
}

func TestSpawn_PathPrepended(t *testing.T) {
	sink, childLog := newTestSink(t)
	s := New(sink)
	toolDir := t.TempDir()
	tool := filepath.Join(toolDir, "svcwrap-test-tool")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\necho tool-ran\n"), 0o700); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Name:    "test",
		Command: []string{"/bin/sh", "-c", "svcwrap-test-tool"},
		Path:    []string{toolDir},
	}
	h, err := s.Spawn(cfg)
	if err != nil {
		t.Fatal(err)
	}
	rec := h.Wait()
	if rec.Code != 0 {
		t.Fatalf("tool lookup failed, exit %d", rec.Code)
	}
	time.Sleep(50 * time.Millisecond)
	b, _ := os.ReadFile(childLog)
	if !strings.Contains(string(b), "tool-ran") {
		t.Errorf("child log = %q, want tool-ran", b)
	}
}

func TestGracefulStop_Graceful(t *testing.T) {
	sink, _ := newTestSink(t)
	s := New(sink)
	h, err := s.Spawn(shCfg(`trap 'exit 7' TERM; while :; do sleep 0.1; done`))
	if err != nil {
		t.Fatal(err)
	}
	// Give the shell a moment to install the trap.
	time.Sleep(200 * time.Millisecond)
	out, err := s.GracefulStop(h, 5*time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Forced {
		t.Error("stop was forced, want graceful")
	}
	if out.Record.Code != 7 {
		t.Errorf("exit code = %d, want 7", out.Record.Code)
	}
}

func TestGracefulStop_EscalatesWithinBound(t *testing.T) {
	sink, _ := newTestSink(t)
	s := New(sink)
	h, err := s.Spawn(shCfg(`trap '' TERM; sleep 10`))
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	ticks := 0
	start := time.Now()
	out, err := s.GracefulStop(h, 200*time.Millisecond, func() { ticks++ })
	elapsed := time.Since(start)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Forced {
		t.Error("stop was graceful, want forced kill")
	}
	if out.Record.Reason != ReasonKilled {
		t.Errorf("reason = %v, want killed", out.Record.Reason)
	}
	if elapsed > 2*time.Second {
		t.Errorf("escalation took %v, want roughly the 200ms deadline", elapsed)
	}
	if ticks == 0 {
		t.Error("progress callback never invoked during the grace period")
	}
}

func TestGracefulStop_AlreadyExited(t *testing.T) {
	sink, _ := newTestSink(t)
	s := New(sink)
	h, err := s.Spawn(shCfg("exit 4"))
	if err != nil {
		t.Fatal(err)
	}
	h.Wait()
	out, err := s.GracefulStop(h, time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Forced || out.Record.Code != 4 {
		t.Errorf("outcome = %+v, want graceful with code 4", out)
	}
}

func TestGracefulStop_KillsWholeTree(t *testing.T) {
	sink, _ := newTestSink(t)
	s := New(sink)
	// The child spawns a grandchild; both ignore TERM.
	h, err := s.Spawn(shCfg(`trap '' TERM; sh -c "trap '' TERM; sleep 30" & wait`))
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	kids := descendants(h.PID())
	if len(kids) == 0 {
		t.Skip("no grandchild visible in the process table")
	}
	out, err := s.GracefulStop(h, 200*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Forced {
		t.Error("expected a forced kill")
	}
	time.Sleep(200 * time.Millisecond)
	for _, k := range kids {
		if running, err := k.IsRunning(); err == nil && running {
			t.Errorf("descendant pid %d survived the tree kill", k.Pid)
		}
	}
}

func TestKill_Idempotent(t *testing.T) {
	sink, _ := newTestSink(t)
	s := New(sink)
	h, err := s.Spawn(shCfg("exit 0"))
	if err != nil {
		t.Fatal(err)
	}
	h.Wait()
	if err := s.Kill(h); err != nil {
		t.Errorf("Kill on an exited child: %v", err)
	}
}
