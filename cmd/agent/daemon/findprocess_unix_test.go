//go:build !windows

package daemon

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"
)

func TestIsProcessAlive_CurrentProcess(t *testing.T) {
	if !isProcessAlive(os.Getpid()) {
		t.Error("expected current process to be reported alive")
	}
}

func TestIsProcessAlive_ExitedProcess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "true")
	if err := cmd.Run(); err != nil {
		t.Fatalf("run true: %v", err)
	}

	if isProcessAlive(cmd.Process.Pid) {
		t.Error("expected exited process to be reported dead")
	}
}

func TestFindNebulaProcess_NoMatch(t *testing.T) {
	if _, found := findNebulaProcess("/no/such/config/path/used/by/any/real/process.yml"); found {
		t.Error("expected no process to match an unused config path")
	}
}

func TestContainsArg(t *testing.T) {
	args := []string{"nebula", "-config", "/etc/nebula/config.yml"}
	if !containsArg(args, "/etc/nebula/config.yml") {
		t.Error("expected containsArg to find matching arg")
	}
	if containsArg(args, "/etc/other.yml") {
		t.Error("expected containsArg to reject non-matching arg")
	}
}

func TestSignalTerminate(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}

	signalTerminate(cmd.Process.Pid)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		cmd.Process.Kill()
		t.Fatal("process did not exit after signalTerminate")
	}
}
