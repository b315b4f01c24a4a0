//go:build windows

package pake

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

// Windows has no process groups in the POSIX sense; killing the direct child
// is the best available cleanup.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
