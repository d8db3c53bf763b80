package config

import "fmt"

// Priority is the process priority class applied to the wrapped command.
// Applying it is best-effort; failure is logged, never fatal.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityRealtime
	PriorityHigh
	PriorityAboveNormal
	PriorityBelowNormal
	PriorityIdle
)

// PriorityNames lists the accepted priority spellings, for CLI help.
var PriorityNames = []string{"realtime", "high", "above-normal", "normal", "below-normal", "idle"}

// ParsePriority parses a priority class name.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "realtime":
		return PriorityRealtime, nil
	case "high":
		return PriorityHigh, nil
	case "above-normal":
		return PriorityAboveNormal, nil
	case "normal":
		return PriorityNormal, nil
	case "below-normal":
		return PriorityBelowNormal, nil
	case "idle":
		return PriorityIdle, nil
	}
	return PriorityNormal, fmt.Errorf("invalid priority: %q", s)
}

func (p Priority) String() string {
	switch p {
	case PriorityRealtime:
		return "realtime"
	case PriorityHigh:
		return "high"
	case PriorityAboveNormal:
		return "above-normal"
	case PriorityBelowNormal:
		return "below-normal"
	case PriorityIdle:
		return "idle"
	default:
		return "normal"
	}
}
