package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"nebulafleet.dev/pkg/archive"
)

// upgradeDownloadTimeout bounds the binary download.
const upgradeDownloadTimeout = 120 * time.Second

// versionProbeTimeout bounds the `nebula -version` shell-out used both to
// check the currently installed version and to verify a freshly downloaded
// one.
const versionProbeTimeout = 5 * time.Second

// Upgrader downloads and installs a Nebula release when the control
// plane's advertised version drifts from what's installed locally.
type Upgrader struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewUpgrader creates an Upgrader.
func NewUpgrader(logger *zap.Logger) *Upgrader {
	return &Upgrader{
		httpClient: &http.Client{Timeout: upgradeDownloadTimeout},
		logger:     logger,
	}
}

// InstalledVersion runs `nebula -version` against the binary at binPath
// and parses out the version string, e.g. "1.9.7". It returns ok=false if
// the binary is missing or its output could not be parsed.
func (u *Upgrader) InstalledVersion(ctx context.Context, binPath string) (version string, ok bool) {
	if _, err := os.Stat(binPath); err != nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, binPath, "-version").CombinedOutput()
	if err != nil {
		u.logger.Warn("failed to run nebula -version", zap.Error(err))
		return "", false
	}
	return parseVersionOutput(string(out))
}

// EnsureVersion installs desiredVersion over binPath if it isn't already
// installed there.
func (u *Upgrader) EnsureVersion(ctx context.Context, binPath, desiredVersion string) error {
	desiredVersion = strings.TrimPrefix(desiredVersion, "v")

	if installed, ok := u.InstalledVersion(ctx, binPath); ok && installed == desiredVersion {
		u.logger.Info("nebula already at desired version", zap.String("version", desiredVersion))
		return nil
	}

	u.logger.Info("upgrading nebula", zap.String("to", desiredVersion))
	return u.downloadAndInstall(ctx, binPath, desiredVersion)
}

func (u *Upgrader) downloadAndInstall(ctx context.Context, binPath, version string) error {
	arch, err := nebulaArch()
	if err != nil {
		return err
	}

	url := fmt.Sprintf("https://github.com/slackhq/nebula/releases/download/v%s/nebula-linux-%s.tar.gz", version, arch)

	tmpDir, err := os.MkdirTemp("", "nebula-upgrade-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := u.downloadAndExtract(ctx, url, tmpDir); err != nil {
		return err
	}

	newBin := filepath.Join(tmpDir, "nebula")
	if _, err := os.Stat(newBin); err != nil {
		return fmt.Errorf("nebula binary not found in downloaded archive: %w", err)
	}

	downloadedVersion, ok := u.InstalledVersion(ctx, newBin)
	if !ok || downloadedVersion != version {
		return fmt.Errorf("version mismatch: expected %s, got %q", version, downloadedVersion)
	}

	if err := backupExisting(binPath); err != nil {
		u.logger.Warn("failed to back up existing nebula binary", zap.Error(err))
	}

	if err := installBinary(newBin, binPath); err != nil {
		return fmt.Errorf("install new binary: %w", err)
	}

	finalVersion, ok := u.InstalledVersion(ctx, binPath)
	if !ok || finalVersion != version {
		return fmt.Errorf("installation verification failed: expected %s, got %q", version, finalVersion)
	}

	u.logger.Info("nebula upgraded", zap.String("version", version))
	return nil
}

// downloadAndExtract streams the release archive straight into
// archive.ExtractTarGz, which rejects any entry that would escape destDir.
func (u *Upgrader) downloadAndExtract(ctx context.Context, url, destDir string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("nebula release not found at %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	if err := archive.ExtractTarGz(resp.Body, destDir); err != nil {
		return fmt.Errorf("extract release archive: %w", err)
	}
	return nil
}

func backupExisting(binPath string) error {
	if _, err := os.Stat(binPath); err != nil {
		return nil
	}
	backupPath := fmt.Sprintf("%s.backup.%d", binPath, now().Unix())
	data, err := os.ReadFile(binPath)
	if err != nil {
		return err
	}
	return os.WriteFile(backupPath, data, 0755)
}

func installBinary(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return writeFileAtomic(dest, data, 0755)
}

func nebulaArch() (string, error) {
	switch runtime.GOARCH {
	case "amd64":
		return "amd64", nil
	case "arm64":
		return "arm64", nil
	case "arm":
		return "arm", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s", runtime.GOARCH)
	}
}

// parseVersionOutput extracts a version token from `nebula -version` output
// like "Nebula version 1.9.7" or "Version: 1.9.7".
func parseVersionOutput(out string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		for i, f := range fields {
			if strings.EqualFold(strings.TrimSuffix(f, ":"), "version") && i+1 < len(fields) {
				return strings.TrimPrefix(fields[i+1], "v"), true
			}
		}
	}
	return "", false
}
