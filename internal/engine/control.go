package engine

// ControlCode is an asynchronous instruction from the host service manager.
type ControlCode int

const (
	ControlStop ControlCode = iota
	ControlShutdown
	ControlInterrogate
	ControlPauseContinue
)

func (c ControlCode) String() string {
	switch c {
	case ControlStop:
		return "stop"
	case ControlShutdown:
		return "shutdown"
	case ControlInterrogate:
		return "interrogate"
	case ControlPauseContinue:
		return "pause-continue"
	default:
		return "unknown"
	}
}
