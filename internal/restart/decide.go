package restart

// Decision is the outcome of consulting the restart policy after a child exit.
type Decision int

const (
	// Restart the command with the same configuration.
	Restart Decision = iota
	// StopSuccess stops supervision and reports a clean exit (code 0).
	StopSuccess
	// Stop stops supervision and reports the child's exit code as-is.
	Stop
)

func (d Decision) String() string {
	switch d {
	case Restart:
		return "restart"
	case StopSuccess:
		return "stop-success"
	default:
		return "stop"
	}
}

// Decide evaluates the restart policy for a child exit code. Pass codes are
// checked before the policy, so a pass code forces a clean stop even under an
// always-restart policy.
func Decide(exitCode int, p Policy, passCodes []int) Decision {
	if containsCode(passCodes, exitCode) {
		return StopSuccess
	}
	switch p.mode {
	case modeNever:
		return Stop
	case modeAlways:
		return Restart
	case modeIfCodeIn:
		if containsCode(p.codes, exitCode) {
			return Restart
		}
		return Stop
	case modeIfCodeNotIn:
		if containsCode(p.codes, exitCode) {
			return Stop
		}
		return Restart
	default:
		if exitCode != 0 {
			return Restart
		}
		return Stop
	}
}

func containsCode(codes []int, c int) bool {
	for _, v := range codes {
		if v == c {
			return true
		}
	}
	return false
}
