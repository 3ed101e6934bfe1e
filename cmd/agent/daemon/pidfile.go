package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PIDFileName is the filename the authoritative Nebula process ID is
// persisted under.
const PIDFileName = "nebula.pid"

// pidFilePath returns the path to the PID file under stateDir.
func pidFilePath(stateDir string) string {
	return filepath.Join(stateDir, PIDFileName)
}

// writePIDFile atomically persists pid to nebula.pid under stateDir.
func writePIDFile(stateDir string, pid int) error {
	return writeFileAtomic(pidFilePath(stateDir), []byte(strconv.Itoa(pid)), 0644)
}

// readPIDFile reads the PID persisted under stateDir. It returns ok=false
// if the file does not exist or does not contain a valid PID.
func readPIDFile(stateDir string) (pid int, ok bool) {
	data, err := os.ReadFile(pidFilePath(stateDir))
	if err != nil {
		return 0, false
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return pid, true
}

// removePIDFile deletes the PID file, ignoring a missing file.
func removePIDFile(stateDir string) {
	os.Remove(pidFilePath(stateDir))
}

// adoptOrphanPID scans for a running `nebula ... configPath` process when
// the PID file is missing, so a daemon restart does not spawn a second
// Nebula instance alongside an orphaned one left by a prior agent crash.
func adoptOrphanPID(configPath string) (pid int, found bool) {
	return findNebulaProcess(configPath)
}

// describePIDSource is used in log lines to distinguish a freshly spawned
// PID from one adopted from an existing process.
func describePIDSource(adopted bool) string {
	if adopted {
		return "adopted"
	}
	return "spawned"
}

func fmtPID(pid int) string {
	return fmt.Sprintf("%d", pid)
}
