package daemon

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// keygenTimeout bounds the nebula-cert keygen subprocess, matching the
// 30s ceiling the spec assigns to keygen/sign/print invocations.
const keygenTimeout = 30 * time.Second

// EnsureKeypair makes sure host.key/host.pub exist under stateDir,
// generating them via `nebula-cert keygen` if either is missing. The
// private key is given owner-only permissions on POSIX; on Windows its
// inherited ACL is removed and only SYSTEM and Administrators are granted
// access.
func EnsureKeypair(ctx context.Context, nebulaCertPath, stateDir string) (keyPath, pubPath string, err error) {
	keyPath = filepath.Join(stateDir, "host.key")
	pubPath = filepath.Join(stateDir, "host.pub")

	_, keyErr := os.Stat(keyPath)
	_, pubErr := os.Stat(pubPath)
	if keyErr == nil && pubErr == nil {
		return keyPath, pubPath, nil
	}

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return "", "", fmt.Errorf("create state directory: %w", err)
	}

	if nebulaCertPath == "" {
		nebulaCertPath = "nebula-cert"
	}

	genCtx, cancel := context.WithTimeout(ctx, keygenTimeout)
	defer cancel()

	cmd := exec.CommandContext(genCtx, nebulaCertPath, "keygen", "-out-key", keyPath, "-out-pub", pubPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", "", fmt.Errorf("nebula-cert keygen: %w (output: %s)", err, string(out))
	}

	if err := restrictKeyPermissions(keyPath); err != nil {
		return "", "", fmt.Errorf("restrict key permissions: %w", err)
	}

	return keyPath, pubPath, nil
}
