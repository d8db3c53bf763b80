//go:build !windows

package supervisor

import (
	"syscall"

	"github.com/svcwrap/svcwrap/internal/config"
)

// applyPriority maps the priority class to a nice value and applies it to
// the child's process group so descendants inherit it.
func applyPriority(pid int, p config.Priority) error {
	return syscall.Setpriority(syscall.PRIO_PGRP, pid, niceValue(p))
}

func niceValue(p config.Priority) int {
	switch p {
	case config.PriorityRealtime:
		return -20
	case config.PriorityHigh:
		return -10
	case config.PriorityAboveNormal:
		return -5
	case config.PriorityBelowNormal:
		return 5
	case config.PriorityIdle:
		return 19
	default:
		return 0
	}
}
