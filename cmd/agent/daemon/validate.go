package daemon

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// configValidateTimeout bounds how long `nebula -test -config` is allowed
// to run before the supervisor gives up on a restart attempt.
const configValidateTimeout = 15 * time.Second

// validateConfig runs `nebula -test -config <path>` and reports whether the
// config is valid. The supervisor calls this before every restart so a bad
// fetched config never replaces a known-good running process.
func validateConfig(ctx context.Context, nebulaBinary, configPath string) error {
	ctx, cancel := context.WithTimeout(ctx, configValidateTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, nebulaBinary, "-test", "-config", configPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("config validation failed: %w: %s", err, string(out))
	}
	return nil
}
