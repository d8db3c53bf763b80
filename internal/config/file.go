package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileConfig is the optional config-file form of the CLI flags. Flags win
// over file values; the merge happens in the command layer where it can see
// which flags were actually set.
type FileConfig struct {
	Name         string        `mapstructure:"name"`
	Command      []string      `mapstructure:"command"`
	WorkDir      string        `mapstructure:"cwd"`
	Env          []string      `mapstructure:"env"`
	Path         []string      `mapstructure:"path"`
	Priority     string        `mapstructure:"priority"`
	StopTimeout  time.Duration `mapstructure:"stop_timeout"`
	RestartDelay time.Duration `mapstructure:"restart_delay"`

	// Restart policy; at most one of these may be set.
	Restart      bool  `mapstructure:"restart"`
	NoRestart    bool  `mapstructure:"no_restart"`
	RestartIf    []int `mapstructure:"restart_if"`
	RestartIfNot []int `mapstructure:"restart_if_not"`

	Pass          []int `mapstructure:"pass"`
	PassStartArgs bool  `mapstructure:"pass_start_args"`

	Log struct {
		Disabled bool   `mapstructure:"disabled"`
		NoCmd    bool   `mapstructure:"no_cmd"`
		Dir      string `mapstructure:"dir"`
		As       string `mapstructure:"as"`
		CmdAs    string `mapstructure:"cmd_as"`
		Rotate   string `mapstructure:"rotate"`
		Retain   *int   `mapstructure:"retain"`
	} `mapstructure:"log"`

	HistoryDSN    string `mapstructure:"history_dsn"`
	MetricsListen string `mapstructure:"metrics_listen"`
}

// LoadFile reads a config file (format inferred from the extension; TOML and
// YAML are both accepted).
func LoadFile(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := fc.checkPolicyExclusive(); err != nil {
		return nil, err
	}
	return &fc, nil
}

func (fc *FileConfig) checkPolicyExclusive() error {
	n := 0
	if fc.Restart {
		n++
	}
	if fc.NoRestart {
		n++
	}
	if len(fc.RestartIf) > 0 {
		n++
	}
	if len(fc.RestartIfNot) > 0 {
		n++
	}
	if n > 1 {
		return fmt.Errorf("restart, no_restart, restart_if and restart_if_not are mutually exclusive")
	}
	return nil
}
