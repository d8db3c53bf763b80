package supervisor

import (
	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// descendants returns the live descendants of pid, deepest first, so leaves
// can be killed before their parents. Descendants that detached into their
// own session are not reachable by a group signal but are still found here
// through the process table.
func descendants(pid int) []*gopsproc.Process {
	root, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return nil
	}
	var out []*gopsproc.Process
	var walk func(p *gopsproc.Process, depth int)
	walk = func(p *gopsproc.Process, depth int) {
		if depth > 32 {
			return
		}
		children, err := p.Children()
		if err != nil {
			return
		}
		for _, c := range children {
			walk(c, depth+1)
			out = append(out, c)
		}
	}
	walk(root, 0)
	return out
}
