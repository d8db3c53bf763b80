package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/svcwrap/svcwrap/internal/env"
	"github.com/svcwrap/svcwrap/internal/logging"
	"github.com/svcwrap/svcwrap/internal/restart"
)

// DefaultStopTimeout is how long the supervisor waits between the cooperative
// termination signal and the forced kill.
const DefaultStopTimeout = 3 * time.Second

// Config is the fully resolved, immutable description of one wrapped service.
// It is built once by the CLI (or an embedding program) and never mutated;
// flag conflicts and path validity are enforced before construction.
type Config struct {
	Name         string        // service name, used in logging and registration
	Command      []string      // argv of the wrapped command, non-empty
	WorkDir      string        // optional absolute working directory
	Env          []env.Var     // ordered environment additions
	Path         []string      // extra search-path entries, prepended
	Priority     *Priority     // optional process priority class
	StopTimeout  time.Duration // graceful-stop deadline
	RestartDelay time.Duration // minimum delay between restarts (0 = none)
	Policy       restart.Policy
	PassCodes    []int // exit codes treated as a successful stop

	Log           logging.Config
	HistoryDSN    string // optional lifecycle audit sink
	MetricsListen string // optional prometheus listen address
}

// Validate checks the invariants the engine relies on. It does not re-check
// what the flag layer already rejected (conflicting restart flags).
func (c *Config) Validate() error {
	if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return errors.New("command must not be empty")
	}
	if c.WorkDir != "" && !filepath.IsAbs(c.WorkDir) {
		return fmt.Errorf("working directory must be absolute: %q", c.WorkDir)
	}
	if c.StopTimeout < 0 {
		return fmt.Errorf("stop timeout must not be negative: %v", c.StopTimeout)
	}
	if c.RestartDelay < 0 {
		return fmt.Errorf("restart delay must not be negative: %v", c.RestartDelay)
	}
	return nil
}

// ParseEnvVar parses one "KEY=value" addition.
func ParseEnvVar(s string) (env.Var, error) {
	i := strings.IndexByte(s, '=')
	if i <= 0 {
		return env.Var{}, fmt.Errorf("invalid KEY=value formatting in %q", s)
	}
	return env.Var{Key: s[:i], Value: s[i+1:]}, nil
}
