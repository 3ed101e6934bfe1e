package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"nebulafleet.dev/cmd/agent/daemon"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show node agent status",
	Long:  `Display the current status of the NebulaFleet node agent: supervisor counters and the client certificate expiry from the cached config.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	config, err := daemon.LoadConfig()
	if err != nil {
		return fmt.Errorf("load agent config: %w", err)
	}

	m := newStatusModel(config.StateDir)
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

type statusModel struct {
	stateDir string
	spinner  spinner.Model
	metrics  daemon.Metrics
	loaded   bool

	certExpiry    time.Time
	certExpiryErr error
}

func newStatusModel(stateDir string) statusModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return statusModel{stateDir: stateDir, spinner: s}
}

type metricsLoadedMsg daemon.Metrics

type certExpiryMsg struct {
	expiry time.Time
	err    error
}

func (m statusModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadMetricsCmd(m.stateDir), loadCertExpiryCmd(m.stateDir))
}

func loadMetricsCmd(stateDir string) tea.Cmd {
	return func() tea.Msg {
		return metricsLoadedMsg(daemon.LoadMetrics(stateDir).Snapshot())
	}
}

func loadCertExpiryCmd(stateDir string) tea.Cmd {
	return func() tea.Msg {
		cached, err := daemon.LoadCachedConfig(stateDir)
		if err != nil {
			return certExpiryMsg{err: err}
		}
		expiry, err := daemon.CertExpiry(cached.ClientCertPEM)
		return certExpiryMsg{expiry: expiry, err: err}
	}
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case metricsLoadedMsg:
		m.metrics = daemon.Metrics(msg)
		m.loaded = true
		return m, nil
	case certExpiryMsg:
		m.certExpiry, m.certExpiryErr = msg.expiry, msg.err
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m statusModel) View() string {
	if !m.loaded {
		return fmt.Sprintf("%s loading agent status from %s...\n", m.spinner.View(), m.stateDir)
	}

	view := fmt.Sprintf("nebulafleet-agent status (%s)\n\n", m.stateDir)
	view += fmt.Sprintf("  crashes:              %d\n", m.metrics.CrashCount)
	view += fmt.Sprintf("  disconnects:          %d\n", m.metrics.DisconnectCount)
	view += fmt.Sprintf("  restarts:             %d\n", m.metrics.RestartCount)
	view += fmt.Sprintf("  config fetch failures: %d\n", m.metrics.ConfigFetchFailures)
	view += fmt.Sprintf("  consecutive failures: %d\n", m.metrics.ConsecutiveFailures)

	if !m.metrics.LastCrashTime.IsZero() {
		view += fmt.Sprintf("  last crash:           %s ago\n", time.Since(m.metrics.LastCrashTime).Round(time.Second))
	}
	if !m.metrics.LastSuccessfulRestart.IsZero() {
		view += fmt.Sprintf("  last successful restart: %s ago\n", time.Since(m.metrics.LastSuccessfulRestart).Round(time.Second))
	}

	switch {
	case m.certExpiryErr != nil:
		view += fmt.Sprintf("  client cert expiry:   unknown (%v)\n", m.certExpiryErr)
	case !m.certExpiry.IsZero():
		until := time.Until(m.certExpiry).Round(time.Hour)
		view += fmt.Sprintf("  client cert expiry:   %s (%s)\n", m.certExpiry.Format(time.RFC3339), until)
	}

	view += "\npress q to quit\n"
	return view
}
