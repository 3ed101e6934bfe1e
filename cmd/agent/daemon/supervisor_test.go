package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// writeMockNebula writes a fake "nebula" binary to dir that exits 0
// immediately for `-test -config ...` (config validation) and runs body
// for a plain `-config ...` invocation.
func writeMockNebula(t *testing.T, dir, body string) {
	t.Helper()
	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"-test\" ]; then\n" +
		"  exit 0\n" +
		"fi\n" +
		body
	path := filepath.Join(dir, "nebula")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write mock nebula: %v", err)
	}
}

func TestSupervisor_StartStop(t *testing.T) {
	logger := zaptest.NewLogger(t)
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yml")
	os.WriteFile(configPath, []byte("test: config\n"), 0644)
	writeMockNebula(t, tmpDir, "sleep 5\n")

	s := NewSupervisor(SupervisorConfig{
		ConfigPath:           configPath,
		NebulaBinary:         filepath.Join(tmpDir, "nebula"),
		StateDir:             tmpDir,
		MaxRestartAttempts:   5,
		ProcessCheckInterval: 50 * time.Millisecond,
		PostRestartWait:      10 * time.Millisecond,
		Logger:               logger,
	})

	go s.Run()
	time.Sleep(200 * time.Millisecond)

	if !s.IsRunning() {
		t.Error("supervisor should have started the process")
	}
	if s.PID() <= 0 {
		t.Error("PID should be positive")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if s.IsRunning() {
		t.Error("process should be stopped")
	}
}

func TestSupervisor_RestartOnCrash(t *testing.T) {
	logger := zaptest.NewLogger(t)
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yml")
	os.WriteFile(configPath, []byte("test: config\n"), 0644)
	writeMockNebula(t, tmpDir, "exit 1\n")

	s := NewSupervisor(SupervisorConfig{
		ConfigPath:           configPath,
		NebulaBinary:         filepath.Join(tmpDir, "nebula"),
		StateDir:             tmpDir,
		MaxRestartAttempts:   100,
		ProcessCheckInterval: 50 * time.Millisecond,
		PostRestartWait:      10 * time.Millisecond,
		Logger:               logger,
	})

	go s.Run()
	time.Sleep(300 * time.Millisecond)
	s.Stop()
	// Test passes if this did not hang or panic across several crash/restart cycles.
}

func TestSupervisor_FailsAfterMaxRestartAttempts(t *testing.T) {
	logger := zaptest.NewLogger(t)
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yml")
	os.WriteFile(configPath, []byte("test: config\n"), 0644)
	writeMockNebula(t, tmpDir, "exit 1\n")

	s := NewSupervisor(SupervisorConfig{
		ConfigPath:           configPath,
		NebulaBinary:         filepath.Join(tmpDir, "nebula"),
		StateDir:             tmpDir,
		MaxRestartAttempts:   2,
		ProcessCheckInterval: 10 * time.Millisecond,
		PostRestartWait:      10 * time.Millisecond,
		Logger:               logger,
	})

	go s.Run()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == StateFailed {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if s.State() != StateFailed {
		t.Errorf("expected supervisor to reach StateFailed, got %v", s.State())
	}

	s.Stop()
}

func TestSupervisor_RefusesRestartOnInvalidConfig(t *testing.T) {
	logger := zaptest.NewLogger(t)
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yml")
	os.WriteFile(configPath, []byte("test: config\n"), 0644)

	// This mock always fails -test, so no process should ever be started.
	script := "#!/bin/sh\nexit 1\n"
	os.WriteFile(filepath.Join(tmpDir, "nebula"), []byte(script), 0755)

	s := NewSupervisor(SupervisorConfig{
		ConfigPath:           configPath,
		NebulaBinary:         filepath.Join(tmpDir, "nebula"),
		StateDir:             tmpDir,
		MaxRestartAttempts:   2,
		ProcessCheckInterval: 10 * time.Millisecond,
		PostRestartWait:      10 * time.Millisecond,
		Logger:               logger,
	})

	go s.Run()
	time.Sleep(300 * time.Millisecond)

	if s.IsRunning() {
		t.Error("supervisor should never report running when config never validates")
	}

	s.Stop()
}

func TestSupervisor_Restart(t *testing.T) {
	logger := zaptest.NewLogger(t)
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yml")
	os.WriteFile(configPath, []byte("test: config\n"), 0644)
	writeMockNebula(t, tmpDir, "sleep 5\n")

	s := NewSupervisor(SupervisorConfig{
		ConfigPath:           configPath,
		NebulaBinary:         filepath.Join(tmpDir, "nebula"),
		StateDir:             tmpDir,
		MaxRestartAttempts:   5,
		ProcessCheckInterval: 50 * time.Millisecond,
		PostRestartWait:      10 * time.Millisecond,
		Logger:               logger,
	})

	go s.Run()
	time.Sleep(200 * time.Millisecond)

	if s.PID() <= 0 {
		t.Fatal("process should be running")
	}

	s.Restart()
	time.Sleep(500 * time.Millisecond)

	if !s.IsRunning() {
		t.Error("process should be running after restart")
	}

	s.Stop()
}
