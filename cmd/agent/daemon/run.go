package daemon

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"nebulafleet.dev/sdk"
)

const nebulaBinaryName = "nebula"

// Runner ties together keypair bootstrap, optional binary upgrade, config
// fetch, disk write and supervisor restart into the node agent's reconcile
// cycle. It implements the three entry-point modes: --once, --loop and
// --monitor.
type Runner struct {
	config *AgentConfig
	logger *zap.Logger

	client  *sdk.Client
	fetcher *Fetcher
	writer  *Writer
	metrics *Metrics

	nebulaBinaryPath string
	keyPath          string
	pubPath          string
}

// NewRunner builds a Runner from a validated AgentConfig.
func NewRunner(config *AgentConfig, logger *zap.Logger) (*Runner, error) {
	client, err := sdk.NewClient(sdk.ClientConfig{
		BaseURL:             config.ServerURL,
		AllowSelfSignedCert: config.AllowSelfSignedCert,
	})
	if err != nil {
		return nil, fmt.Errorf("build control plane client: %w", err)
	}

	metrics := LoadMetrics(config.StateDir)

	r := &Runner{
		config:           config,
		logger:           logger,
		client:           client,
		writer:           NewWriter(config.StateDir),
		metrics:          metrics,
		nebulaBinaryPath: nebulaBinaryName,
	}
	r.fetcher = NewFetcher(client, config.StateDir, config.MaxFetchRetries, logger, func() { metrics.RecordConfigFetchFailure() })

	return r, nil
}

// RunOnce executes a single reconcile cycle: ensure keypair, fetch config,
// write if changed, restart if needed. It is the implementation of --once,
// and the building block for --loop and --monitor.
func (r *Runner) RunOnce(ctx context.Context, supervisor *Supervisor) error {
	keyPath, pubPath, err := EnsureKeypair(ctx, "nebula-cert", r.config.StateDir)
	if err != nil {
		return fmt.Errorf("ensure keypair: %w", err)
	}
	r.keyPath, r.pubPath = keyPath, pubPath

	pubPEM, err := os.ReadFile(pubPath)
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}

	req := sdk.ConfigRequest{
		Token:         r.config.ClientToken,
		PublicKeyPEM:  string(pubPEM),
		ClientVersion: agentVersion,
		NebulaVersion: r.installedNebulaVersion(ctx),
		OSType:        detectOSType(),
	}

	resp, fromCache, err := r.fetcher.Fetch(ctx, req)
	if err != nil {
		return fmt.Errorf("fetch config: %w", err)
	}
	if fromCache {
		r.logger.Warn("operating on cached config, control plane unreachable")
	}

	if err := r.maybeUpgrade(ctx, resp); err != nil {
		r.logger.Error("nebula upgrade check failed, continuing with existing binary", zap.Error(err))
	}

	changed, err := r.writer.Apply(resp)
	if err != nil {
		return fmt.Errorf("apply config: %w", err)
	}

	if changed {
		r.logger.Info("config changed, restarting nebula")
		if supervisor != nil {
			supervisor.Restart()
		}
	}

	return nil
}

// installedNebulaVersion best-effort reports the locally installed Nebula
// version so the control plane can include it in config rendering
// decisions. An empty string is sent if it cannot be determined.
func (r *Runner) installedNebulaVersion(ctx context.Context) string {
	up := NewUpgrader(r.logger)
	version, ok := up.InstalledVersion(ctx, r.nebulaBinaryPath)
	if !ok {
		return ""
	}
	return version
}

// maybeUpgrade checks the control plane's managed Nebula version and
// upgrades the local binary if it has drifted.
func (r *Runner) maybeUpgrade(ctx context.Context, resp *sdk.ConfigResponse) error {
	versionInfo, err := r.client.GetVersion(ctx)
	if err != nil {
		return err
	}
	if versionInfo.ManagedNebulaVersion == "" {
		return nil
	}

	up := NewUpgrader(r.logger)
	return up.EnsureVersion(ctx, r.nebulaBinaryPath, versionInfo.ManagedNebulaVersion)
}

// RunLoop cycles RunOnce every PollIntervalHours until ctx is cancelled.
func (r *Runner) RunLoop(ctx context.Context, supervisor *Supervisor) error {
	interval := time.Duration(r.config.PollIntervalHours * float64(time.Hour))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := r.RunOnce(ctx, supervisor); err != nil {
		r.logger.Error("reconcile cycle failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.RunOnce(ctx, supervisor); err != nil {
				r.logger.Error("reconcile cycle failed", zap.Error(err))
			}
		}
	}
}

// RunMonitor runs the reconcile loop alongside a background supervisor
// goroutine, the two cooperating execution contexts sharing only metrics
// under its own lock. SIGINT/SIGTERM drains the current cycle before
// exiting; the supervisor then stops the Nebula process it manages, so
// Nebula does not outlive the agent.
func (r *Runner) RunMonitor(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var supervisor *Supervisor
	errCh := make(chan error, 1)

	if r.config.StartNebula {
		supervisor = NewSupervisor(SupervisorConfig{
			ConfigPath:           filepath.Join(r.config.StateDir, ConfigFileName),
			NebulaBinary:         r.nebulaBinaryPath,
			StateDir:             r.config.StateDir,
			MaxRestartAttempts:   r.config.MaxRestartAttempts,
			ProcessCheckInterval: r.config.ProcessCheckInterval,
			PostRestartWait:      r.config.PostRestartWait,
			Metrics:              r.metrics,
			Logger:               r.logger,
		})
		go func() { errCh <- supervisor.Run() }()
	}

	loopErr := r.RunLoop(ctx, supervisor)

	if supervisor != nil {
		supervisor.Stop()
		<-errCh
	}

	return loopErr
}

// CertExpiry extracts NotAfter from a PEM-encoded certificate, used by the
// status command to report time-to-expiry for the cached client cert.
func CertExpiry(certPEM string) (time.Time, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return time.Time{}, fmt.Errorf("no PEM block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return time.Time{}, err
	}
	return cert.NotAfter, nil
}
