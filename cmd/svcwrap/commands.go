package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/svcwrap/svcwrap/internal/config"
	"github.com/svcwrap/svcwrap/internal/engine"
	"github.com/svcwrap/svcwrap/internal/env"
	"github.com/svcwrap/svcwrap/internal/history"
	"github.com/svcwrap/svcwrap/internal/history/factory"
	"github.com/svcwrap/svcwrap/internal/hostsvc"
	"github.com/svcwrap/svcwrap/internal/install"
	"github.com/svcwrap/svcwrap/internal/logging"
	"github.com/svcwrap/svcwrap/internal/metrics"
	"github.com/svcwrap/svcwrap/internal/restart"
	"github.com/svcwrap/svcwrap/internal/supervisor"
)

// command carries the wrapper's eventual process exit code out of cobra,
// which only knows success or failure.
type command struct {
	exitCode int
}

// Run wraps the given command for the lifetime of the service.
func (c *command) Run(flags *CommonFlags, changed func(string) bool, wrapped []string) error {
	cfg, err := resolveConfig(flags, changed, wrapped)
	if err != nil {
		return err
	}
	code, err := runService(cfg, flags.Console, flags.PassStartArgs)
	if err != nil {
		return err
	}
	c.exitCode = code
	return nil
}

// Add registers the wrapper with the host service manager so the manager
// launches `svcwrap run` with the same options.
func (c *command) Add(flags *AddFlags, changed func(string) bool, wrapped []string) error {
	cfg, err := resolveConfig(&flags.Common, changed, wrapped)
	if err != nil {
		return err
	}
	return install.Service(install.Options{
		Name:         cfg.Name,
		DisplayName:  flags.DisplayName,
		Description:  flags.Description,
		AutoStart:    flags.AutoStart,
		Dependencies: flags.Dependencies,
		RunArgs:      renderRunArgs(&flags.Common, cfg.Command),
	})
}

// Remove unregisters a previously added service.
func (c *command) Remove(flags *RemoveFlags) error {
	return install.Remove(flags.Name)
}

// resolveConfig merges file values under explicitly set flags and produces a
// validated config.
func resolveConfig(flags *CommonFlags, changed func(string) bool, wrapped []string) (*config.Config, error) {
	if flags.ConfigPath != "" {
		fc, err := config.LoadFile(flags.ConfigPath)
		if err != nil {
			return nil, err
		}
		mergeFileConfig(flags, fc, changed)
		if len(wrapped) == 0 {
			wrapped = fc.Command
		}
	}
	return buildConfig(flags, wrapped)
}

// mergeFileConfig fills in flags the user did not set from the config file.
func mergeFileConfig(f *CommonFlags, fc *config.FileConfig, changed func(string) bool) {
	if !changed("name") && fc.Name != "" {
		f.Name = fc.Name
	}
	if !changed("cwd") && fc.WorkDir != "" {
		f.Cwd = fc.WorkDir
	}
	if !changed("env") && len(fc.Env) > 0 {
		f.Env = fc.Env
	}
	if !changed("path") && len(fc.Path) > 0 {
		f.Path = fc.Path
	}
	if !changed("priority") && fc.Priority != "" {
		f.Priority = fc.Priority
	}
	if !changed("stop-timeout") && fc.StopTimeout > 0 {
		f.StopTimeout = fc.StopTimeout
	}
	if !changed("restart-delay") && fc.RestartDelay > 0 {
		f.RestartDelay = fc.RestartDelay
	}
	policySet := changed("restart") || changed("no-restart") ||
		changed("restart-if") || changed("restart-if-not")
	if !policySet {
		f.Restart = fc.Restart
		f.NoRestart = fc.NoRestart
		f.RestartIf = fc.RestartIf
		f.RestartIfNot = fc.RestartIfNot
	}
	if !changed("pass") && len(fc.Pass) > 0 {
		f.Pass = fc.Pass
	}
	if !changed("pass-start-args") {
		f.PassStartArgs = fc.PassStartArgs
	}
	if !changed("no-log") {
		f.NoLog = fc.Log.Disabled
	}
	if !changed("no-log-cmd") {
		f.NoLogCmd = fc.Log.NoCmd
	}
	if !changed("log-dir") && fc.Log.Dir != "" {
		f.LogDir = fc.Log.Dir
	}
	if !changed("log-as") && fc.Log.As != "" {
		f.LogAs = fc.Log.As
	}
	if !changed("log-cmd-as") && fc.Log.CmdAs != "" {
		f.LogCmdAs = fc.Log.CmdAs
	}
	if !changed("log-rotate") && fc.Log.Rotate != "" {
		f.LogRotate = fc.Log.Rotate
	}
	if !changed("log-retain") && fc.Log.Retain != nil {
		f.LogRetain = *fc.Log.Retain
	}
	if !changed("history-dsn") && fc.HistoryDSN != "" {
		f.HistoryDSN = fc.HistoryDSN
	}
	if !changed("metrics-listen") && fc.MetricsListen != "" {
		f.MetricsListen = fc.MetricsListen
	}
}

func buildConfig(f *CommonFlags, wrapped []string) (*config.Config, error) {
	if len(wrapped) == 0 {
		return nil, errors.New("no command given; put it after \"--\"")
	}

	policy, err := policyFromFlags(f)
	if err != nil {
		return nil, err
	}

	envs := make([]env.Var, 0, len(f.Env))
	for _, kv := range f.Env {
		v, err := config.ParseEnvVar(kv)
		if err != nil {
			return nil, err
		}
		envs = append(envs, v)
	}

	var prio *config.Priority
	if f.Priority != "" {
		p, err := config.ParsePriority(f.Priority)
		if err != nil {
			return nil, err
		}
		prio = &p
	}

	rotation := logging.DefaultRotation()
	if f.LogRotate != "" {
		rotation, err = logging.ParseRotation(f.LogRotate)
		if err != nil {
			return nil, err
		}
	}

	cfg := &config.Config{
		Name:         f.Name,
		Command:      wrapped,
		WorkDir:      f.Cwd,
		Env:          envs,
		Path:         f.Path,
		Priority:     prio,
		StopTimeout:  f.StopTimeout,
		RestartDelay: f.RestartDelay,
		Policy:       policy,
		PassCodes:    f.Pass,
		Log: logging.Config{
			Disabled:   f.NoLog,
			NoChildLog: f.NoLogCmd,
			Dir:        f.LogDir,
			As:         f.LogAs,
			ChildAs:    f.LogCmdAs,
			Rotation:   rotation,
			Retain:     f.LogRetain,
		},
		HistoryDSN:    f.HistoryDSN,
		MetricsListen: f.MetricsListen,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func policyFromFlags(f *CommonFlags) (restart.Policy, error) {
	switch {
	case f.Restart:
		return restart.Always(), nil
	case f.NoRestart:
		return restart.Never(), nil
	case len(f.RestartIf) > 0:
		return restart.IfCodeIn(f.RestartIf...), nil
	case len(f.RestartIfNot) > 0:
		return restart.IfCodeNotIn(f.RestartIfNot...), nil
	default:
		return restart.Default(), nil
	}
}

// runService wires the sink, supervisor, engine and optional observability,
// then hands control to the host runner.
func runService(cfg *config.Config, forceConsole, passStartArgs bool) (int, error) {
	var console io.Writer
	if forceConsole || hostsvc.Interactive() {
		console = os.Stderr
	}
	sink, err := logging.New(cfg.Name, cfg.Log, console)
	if err != nil {
		return 0, err
	}
	defer func() { _ = sink.Close() }()

	var hist history.Sink
	if cfg.HistoryDSN != "" {
		hist, err = factory.NewSink(cfg.HistoryDSN)
		if err != nil {
			return 0, fmt.Errorf("open history sink: %w", err)
		}
		defer func() { _ = hist.Close() }()
	}

	if cfg.MetricsListen != "" {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			sink.Logger().Warn("metrics registration failed", "error", err)
		} else {
			go serveMetrics(cfg.MetricsListen, sink)
		}
	}

	sup := supervisor.New(sink)
	build := func(h engine.Host, startArgs []string) *engine.Engine {
		runCfg := cfg
		if passStartArgs {
			runCfg = withStartArgs(cfg, startArgs)
		}
		eng := engine.New(runCfg, sup, sink, h)
		eng.SetHistory(hist)
		return eng
	}
	if forceConsole {
		return hostsvc.RunConsole(build), nil
	}
	return hostsvc.Run(cfg.Name, build), nil
}

// withStartArgs returns a copy of cfg with the service manager's start
// arguments appended to the command argv.
func withStartArgs(cfg *config.Config, startArgs []string) *config.Config {
	if len(startArgs) == 0 {
		return cfg
	}
	dup := *cfg
	dup.Command = append(append([]string(nil), cfg.Command...), startArgs...)
	return &dup
}

func serveMetrics(listen string, sink *logging.Sink) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(listen, mux); err != nil {
		sink.Logger().Warn("metrics server stopped", "error", err)
	}
}

// renderRunArgs rebuilds the run invocation the service manager should use,
// carrying over every option that affects runtime behavior.
func renderRunArgs(f *CommonFlags, wrapped []string) []string {
	args := []string{"run", "--name", f.Name}
	if f.Cwd != "" {
		args = append(args, "--cwd", f.Cwd)
	}
	for _, kv := range f.Env {
		args = append(args, "--env", kv)
	}
	for _, p := range f.Path {
		args = append(args, "--path", p)
	}
	if f.Priority != "" {
		args = append(args, "--priority", f.Priority)
	}
	if f.StopTimeout != config.DefaultStopTimeout {
		args = append(args, "--stop-timeout", f.StopTimeout.String())
	}
	if f.RestartDelay > 0 {
		args = append(args, "--restart-delay", f.RestartDelay.String())
	}
	switch {
	case f.Restart:
		args = append(args, "--restart")
	case f.NoRestart:
		args = append(args, "--no-restart")
	case len(f.RestartIf) > 0:
		args = append(args, "--restart-if", joinInts(f.RestartIf))
	case len(f.RestartIfNot) > 0:
		args = append(args, "--restart-if-not", joinInts(f.RestartIfNot))
	}
	if len(f.Pass) > 0 {
		args = append(args, "--pass", joinInts(f.Pass))
	}
	if f.PassStartArgs {
		args = append(args, "--pass-start-args")
	}
	if f.NoLog {
		args = append(args, "--no-log")
	}
	if f.NoLogCmd {
		args = append(args, "--no-log-cmd")
	}
	if f.LogDir != "" {
		args = append(args, "--log-dir", f.LogDir)
	}
	if f.LogAs != "" {
		args = append(args, "--log-as", f.LogAs)
	}
	if f.LogCmdAs != "" {
		args = append(args, "--log-cmd-as", f.LogCmdAs)
	}
	if f.LogRotate != "" {
		args = append(args, "--log-rotate", f.LogRotate)
	}
	if f.LogRetain > 0 {
		args = append(args, "--log-retain", strconv.Itoa(f.LogRetain))
	}
	if f.HistoryDSN != "" {
		args = append(args, "--history-dsn", f.HistoryDSN)
	}
	if f.MetricsListen != "" {
		args = append(args, "--metrics-listen", f.MetricsListen)
	}
	args = append(args, "--")
	return append(args, wrapped...)
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
