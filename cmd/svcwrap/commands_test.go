package main

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/svcwrap/svcwrap/internal/config"
)

func TestPolicyFromFlags(t *testing.T) {
	cases := []struct {
		name  string
		flags CommonFlags
		want  string
	}{
		{"default", CommonFlags{}, "default"},
		{"always", CommonFlags{Restart: true}, "always"},
		{"never", CommonFlags{NoRestart: true}, "never"},
		{"if", CommonFlags{RestartIf: []int{2, 3}}, "if-code-in(2,3)"},
		{"if-not", CommonFlags{RestartIfNot: []int{0}}, "if-code-not-in(0)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := policyFromFlags(&tc.flags)
			if err != nil {
				t.Fatal(err)
			}
			if got := p.String(); got != tc.want {
				t.Errorf("policy = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildConfig(t *testing.T) {
	f := &CommonFlags{
		Name:        "demo",
		Env:         []string{"A=1", "B=2"},
		Priority:    "below-normal",
		StopTimeout: 5 * time.Second,
		Pass:        []int{7},
		LogRotate:   "daily",
		LogRetain:   4,
	}
	cfg, err := buildConfig(f, []string{"sleep", "60"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg.Command, []string{"sleep", "60"}) {
		t.Errorf("command = %v", cfg.Command)
	}
	if len(cfg.Env) != 2 || cfg.Env[0].Key != "A" || cfg.Env[1].Value != "2" {
		t.Errorf("env = %v", cfg.Env)
	}
	if cfg.Priority == nil || *cfg.Priority != config.PriorityBelowNormal {
		t.Errorf("priority = %v", cfg.Priority)
	}
	if cfg.Log.Rotation.String() != "daily" || cfg.Log.Retain != 4 {
		t.Errorf("log = %+v", cfg.Log)
	}
	if !reflect.DeepEqual(cfg.PassCodes, []int{7}) {
		t.Errorf("pass codes = %v", cfg.PassCodes)
	}
}

func TestBuildConfigErrors(t *testing.T) {
	cases := []struct {
		name    string
		flags   CommonFlags
		wrapped []string
	}{
		{"no command", CommonFlags{Name: "x"}, nil},
		{"bad env", CommonFlags{Name: "x", Env: []string{"MISSING_EQUALS"}}, []string{"true"}},
		{"bad priority", CommonFlags{Name: "x", Priority: "turbo"}, []string{"true"}},
		{"bad rotation", CommonFlags{Name: "x", LogRotate: "weekly"}, []string{"true"}},
		{"relative cwd", CommonFlags{Name: "x", Cwd: "relative/dir"}, []string{"true"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := buildConfig(&tc.flags, tc.wrapped); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestMergeFileConfig(t *testing.T) {
	fc := &config.FileConfig{
		Name:        "from-file",
		WorkDir:     "/srv/app",
		StopTimeout: 9 * time.Second,
		Restart:     true,
		Pass:        []int{5},
	}
	f := &CommonFlags{Name: "from-flag", StopTimeout: config.DefaultStopTimeout}
	changedSet := map[string]bool{"name": true}
	mergeFileConfig(f, fc, func(n string) bool { return changedSet[n] })

	if f.Name != "from-flag" {
		t.Errorf("explicit flag overridden: name = %q", f.Name)
	}
	if f.Cwd != "/srv/app" || f.StopTimeout != 9*time.Second {
		t.Errorf("file values not applied: cwd=%q timeout=%v", f.Cwd, f.StopTimeout)
	}
	if !f.Restart {
		t.Error("file restart policy not applied")
	}
	if len(f.Pass) != 1 || f.Pass[0] != 5 {
		t.Errorf("pass = %v", f.Pass)
	}
}

func TestMergeFileConfigPolicyFlagWins(t *testing.T) {
	fc := &config.FileConfig{Restart: true}
	f := &CommonFlags{NoRestart: true}
	mergeFileConfig(f, fc, func(n string) bool { return n == "no-restart" })
	if f.Restart || !f.NoRestart {
		t.Errorf("flag policy lost: restart=%v no-restart=%v", f.Restart, f.NoRestart)
	}
}

func TestResolveConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svc.toml")
	body := `
name = "filed"
command = ["sleep", "30"]
stop_timeout = "7s"
restart_if = [2, 3]

[log]
rotate = "bytes=1024"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	f := &CommonFlags{ConfigPath: path, StopTimeout: config.DefaultStopTimeout}
	cfg, err := resolveConfig(f, func(string) bool { return false }, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "filed" || cfg.StopTimeout != 7*time.Second {
		t.Errorf("cfg = name %q timeout %v", cfg.Name, cfg.StopTimeout)
	}
	if !reflect.DeepEqual(cfg.Command, []string{"sleep", "30"}) {
		t.Errorf("command = %v", cfg.Command)
	}
	if got := cfg.Policy.String(); got != "if-code-in(2,3)" {
		t.Errorf("policy = %q", got)
	}
	if got := cfg.Log.Rotation.String(); got != "bytes=1024" {
		t.Errorf("rotation = %q", got)
	}
}

func TestRenderRunArgs(t *testing.T) {
	f := &CommonFlags{
		Name:        "demo",
		Cwd:         "/srv/demo",
		Env:         []string{"A=1"},
		StopTimeout:   10 * time.Second,
		RestartIf:     []int{2, 3},
		Pass:          []int{0, 1},
		PassStartArgs: true,
		LogRotate:     "daily",
	}
	got := renderRunArgs(f, []string{"demo.exe", "--port", "8080"})
	want := []string{
		"run", "--name", "demo", "--cwd", "/srv/demo", "--env", "A=1",
		"--stop-timeout", "10s", "--restart-if", "2,3", "--pass", "0,1",
		"--pass-start-args", "--log-rotate", "daily",
		"--", "demo.exe", "--port", "8080",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}
}

func TestWithStartArgs(t *testing.T) {
	base := &config.Config{Name: "demo", Command: []string{"demo.exe", "--port", "8080"}}

	got := withStartArgs(base, []string{"--verbose", "extra"})
	want := []string{"demo.exe", "--port", "8080", "--verbose", "extra"}
	if !reflect.DeepEqual(got.Command, want) {
		t.Errorf("command = %v, want %v", got.Command, want)
	}
	if !reflect.DeepEqual(base.Command, []string{"demo.exe", "--port", "8080"}) {
		t.Errorf("original command mutated: %v", base.Command)
	}

	if same := withStartArgs(base, nil); same != base {
		t.Error("expected the original config back when there are no start arguments")
	}
}

func TestRenderRunArgsRoundTripsThroughRunFlags(t *testing.T) {
	f := &CommonFlags{
		Name:         "demo",
		Restart:      true,
		RestartDelay: time.Second,
		StopTimeout:  config.DefaultStopTimeout,
		NoLogCmd:     true,
	}
	rendered := renderRunArgs(f, []string{"demo.exe"})

	parsed := &CommonFlags{}
	cmd := createRunCommand(&command{}, parsed)
	// Parse only; do not execute the service.
	if err := cmd.ParseFlags(rendered[1:]); err != nil {
		t.Fatal(err)
	}
	if parsed.Name != "demo" || !parsed.Restart || parsed.RestartDelay != time.Second || !parsed.NoLogCmd {
		t.Errorf("round trip lost options: %+v", parsed)
	}
}

func TestRunRequiresCommand(t *testing.T) {
	root, _ := buildRoot()
	root.SetArgs([]string{"run", "--name", "x", "--no-log"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "no command") {
		t.Fatalf("err = %v, want missing-command error", err)
	}
}

func TestRestartFlagsMutuallyExclusive(t *testing.T) {
	root, _ := buildRoot()
	root.SetArgs([]string{"run", "--name", "x", "--restart", "--no-restart", "--", "true"})
	if err := root.Execute(); err == nil {
		t.Fatal("conflicting restart flags accepted")
	}
}

func TestJoinInts(t *testing.T) {
	if got := joinInts([]int{1, -2, 3}); got != "1,-2,3" {
		t.Errorf("joinInts = %q", got)
	}
}
