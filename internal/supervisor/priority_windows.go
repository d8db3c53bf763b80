//go:build windows

package supervisor

import (
	"golang.org/x/sys/windows"

	"github.com/svcwrap/svcwrap/internal/config"
)

// applyPriority sets the Windows priority class on the child process.
func applyPriority(pid int, p config.Priority) error {
	h, err := windows.OpenProcess(windows.PROCESS_SET_INFORMATION, false, uint32(pid))
	if err != nil {
		return err
	}
	defer func() { _ = windows.CloseHandle(h) }()
	return windows.SetPriorityClass(h, priorityClass(p))
}

func priorityClass(p config.Priority) uint32 {
	switch p {
	case config.PriorityRealtime:
		return windows.REALTIME_PRIORITY_CLASS
	case config.PriorityHigh:
		return windows.HIGH_PRIORITY_CLASS
	case config.PriorityAboveNormal:
		return windows.ABOVE_NORMAL_PRIORITY_CLASS
	case config.PriorityBelowNormal:
		return windows.BELOW_NORMAL_PRIORITY_CLASS
	case config.PriorityIdle:
		return windows.IDLE_PRIORITY_CLASS
	default:
		return windows.NORMAL_PRIORITY_CLASS
	}
}
