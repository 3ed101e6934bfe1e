package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeMockNebulaBinary(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "nebula")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write mock nebula: %v", err)
	}
	return path
}

func TestValidateConfig_Success(t *testing.T) {
	tmpDir := t.TempDir()
	binary := writeMockNebulaBinary(t, tmpDir, "exit 0")
	configPath := filepath.Join(tmpDir, "config.yml")
	if err := os.WriteFile(configPath, []byte("pki: {}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := validateConfig(context.Background(), binary, configPath); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidateConfig_Failure(t *testing.T) {
	tmpDir := t.TempDir()
	binary := writeMockNebulaBinary(t, tmpDir, `echo "bad config" >&2; exit 1`)
	configPath := filepath.Join(tmpDir, "config.yml")
	os.WriteFile(configPath, []byte("garbage\n"), 0644)

	err := validateConfig(context.Background(), binary, configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidateConfig_MissingBinary(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")
	os.WriteFile(configPath, []byte("pki: {}\n"), 0644)

	err := validateConfig(context.Background(), filepath.Join(tmpDir, "nope"), configPath)
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}
