package engine

// State is the wrapper's lifecycle state as reported to the host service
// manager. Transitions are monotonic except for the Running self-loop
// performed on a restart.
type State int

const (
	StateInitializing State = iota
	StateRunning
	StateStoppingGraceful
	StateStoppingForced
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateStoppingGraceful:
		return "stopping-graceful"
	case StateStoppingForced:
		return "stopping-forced"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pending reports whether the state is a transition the host expects
// checkpointed progress reports for.
func (s State) Pending() bool {
	switch s {
	case StateInitializing, StateStoppingGraceful, StateStoppingForced:
		return true
	}
	return false
}

// Terminal reports whether supervision has ended.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFailed
}
