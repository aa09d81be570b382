//go:build !windows

package capture

import "syscall"

// killProcessTree sends SIGKILL to the browser's process group. Chrome
// forks renderer and GPU helpers that a plain kill would orphan.
func killProcessTree(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
