//go:build !windows

// Package process stops a launched browser together with its helpers.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid. Chrome
// forks renderer and GPU helpers into the same group.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
