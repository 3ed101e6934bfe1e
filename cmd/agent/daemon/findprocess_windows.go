//go:build windows

package daemon

import (
	"fmt"
	"os"
	"os/exec"
)

// findNebulaProcess has no cheap /proc equivalent on Windows. PID adoption
// is POSIX-only; on Windows a missing PID file always means a fresh spawn.
func findNebulaProcess(configPath string) (pid int, found bool) {
	return 0, false
}

// isProcessAlive reports whether pid refers to a live process. On Windows
// FindProcess opens a handle to the process and fails when none can be
// obtained, so its error alone is the liveness check.
func isProcessAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}

// signalTerminate stops an adopted process via taskkill, since Windows has
// no SIGTERM-equivalent graceful signal for an externally-owned process.
func signalTerminate(pid int) {
	exec.Command("taskkill", "/pid", fmt.Sprintf("%d", pid)).Run()
}
