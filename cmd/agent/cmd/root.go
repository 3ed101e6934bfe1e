package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set at build time via ldflags)
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nebulafleet-agent",
	Short: "NebulaFleet node agent",
	Long: `The NebulaFleet node agent runs on every node enrolled in a fleet.

It:
  - generates and persists a Nebula keypair
  - fetches a signed certificate and rendered config from the control plane
  - writes config/cert/CA to disk only when they change
  - supervises the local Nebula process, restarting it on crash or config
    drift and enforcing a consecutive-failure ceiling`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionString returns formatted version information
func versionString() string {
	return fmt.Sprintf("nebulafleet-agent %s (commit: %s, built: %s)",
		Version, Commit, BuildDate)
}
