//go:build windows

package capture

import (
	"os/exec"
	"strconv"
)

// killProcessTree force-kills the browser and its children with taskkill.
func killProcessTree(pid int) {
	if pid <= 0 {
		return
	}
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is ours
}
