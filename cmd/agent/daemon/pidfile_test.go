package daemon

import (
	"testing"
)

func TestPIDFile_WriteReadRemove(t *testing.T) {
	stateDir := t.TempDir()

	if _, ok := readPIDFile(stateDir); ok {
		t.Fatal("expected no PID file before writing one")
	}

	if err := writePIDFile(stateDir, 4242); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}

	pid, ok := readPIDFile(stateDir)
	if !ok {
		t.Fatal("expected PID file to be readable")
	}
	if pid != 4242 {
		t.Errorf("pid = %d, want 4242", pid)
	}

	removePIDFile(stateDir)
	if _, ok := readPIDFile(stateDir); ok {
		t.Error("expected PID file to be gone after removePIDFile")
	}
}

func TestPIDFile_CorruptContents(t *testing.T) {
	stateDir := t.TempDir()
	if err := writeFileAtomic(pidFilePath(stateDir), []byte("not-a-pid"), 0644); err != nil {
		t.Fatalf("write corrupt pid file: %v", err)
	}

	if _, ok := readPIDFile(stateDir); ok {
		t.Error("expected corrupt PID file to be rejected")
	}
}

func TestDescribePIDSource(t *testing.T) {
	if got := describePIDSource(true); got != "adopted" {
		t.Errorf("describePIDSource(true) = %q, want adopted", got)
	}
	if got := describePIDSource(false); got != "spawned" {
		t.Errorf("describePIDSource(false) = %q, want spawned", got)
	}
}
