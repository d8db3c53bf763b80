//go:build windows

package supervisor

import (
	"errors"

	"golang.org/x/sys/windows"
)

// interruptGroup delivers CTRL_BREAK to the child's console process group.
// The child was spawned with CREATE_NEW_PROCESS_GROUP, so the event reaches
// its tree but not the wrapper.
func interruptGroup(pid int) error {
	err := windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(pid))
	if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
		// Process already gone.
		return nil
	}
	return err
}

// killTree terminates every process in the child's descendant tree, leaves
// first, then the child itself.
func killTree(pid int) error {
	for _, p := range descendants(pid) {
		_ = p.Kill()
	}
	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		// Already gone; treat as terminated.
		return nil
	}
	defer func() { _ = windows.CloseHandle(h) }()
	if err := windows.TerminateProcess(h, 1); err != nil && !errors.Is(err, windows.ERROR_ACCESS_DENIED) {
		return err
	}
	return nil
}
