//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// setProcAttrs places the child in its own process group so termination
// signals can target the whole descendant tree without reaching the wrapper.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
