//go:build !windows

package supervisor

import (
	"errors"
	"syscall"
)

// interruptGroup sends SIGTERM to the child's process group. A missing
// process is not an error: the exit will be observed by the wait goroutine.
func interruptGroup(pid int) error {
	err := syscall.Kill(-pid, syscall.SIGTERM)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}

// killTree sends SIGKILL to the process group, then sweeps descendants that
// escaped the group (e.g. via setsid) through the process table.
func killTree(pid int) error {
	strays := descendants(pid)
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	for _, p := range strays {
		if running, err := p.IsRunning(); err == nil && running {
			_ = p.Kill()
		}
	}
	return nil
}
