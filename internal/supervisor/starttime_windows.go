//go:build windows

package supervisor

import (
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// processStartTime returns the kernel's creation time for pid, or the zero
// time when unavailable.
func processStartTime(pid int) time.Time {
	if pid <= 0 {
		return time.Time{}
	}
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return time.Time{}
	}
	ms, err := p.CreateTime()
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
