package main

import "time"

// CommonFlags describe the wrapped service; run and add share them so a
// service can be registered with the exact flags it will later run with.
type CommonFlags struct {
	ConfigPath string
	Name       string
	Cwd        string
	Env        []string
	Path       []string
	Priority   string

	StopTimeout  time.Duration
	RestartDelay time.Duration

	// Restart policy; cobra enforces mutual exclusion.
	Restart      bool
	NoRestart    bool
	RestartIf    []int
	RestartIfNot []int

	Pass          []int
	PassStartArgs bool

	NoLog     bool
	NoLogCmd  bool
	LogDir    string
	LogAs     string
	LogCmdAs  string
	LogRotate string
	LogRetain int

	HistoryDSN    string
	MetricsListen string

	// Console is a run-only flag; add never forwards it.
	Console bool
}

// AddFlags holds registration-only options on top of the common set.
type AddFlags struct {
	Common       CommonFlags
	DisplayName  string
	Description  string
	AutoStart    bool
	Dependencies []string
}

// RemoveFlags holds flags for the remove command.
type RemoveFlags struct {
	Name string
}
