// Package daemon implements the node agent's reconcile loop: fetching
// config from the control plane, writing it to disk, and supervising the
// local Nebula process.
package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config file locations, checked in order by LoadConfig.
const (
	// DevelopmentConfigPath is an optional config location for local testing.
	DevelopmentConfigPath = "./dev_config.json"

	// ProductionConfigPath is the default config location for production deployments.
	ProductionConfigPath = "/etc/nebulafleet/agent.json"
)

// AgentConfig holds the node agent's reconcile-loop configuration. It is
// loaded from an optional JSON file and then overridden by environment
// variables, matching the teacher's "env wins" config precedence.
type AgentConfig struct {
	// ServerURL is the control plane base URL.
	ServerURL string `json:"server_url"`

	// ClientToken authenticates this node's config fetches.
	ClientToken string `json:"client_token"`

	// PollIntervalHours is the interval between reconcile cycles in --loop mode.
	PollIntervalHours float64 `json:"poll_interval_hours"`

	// AllowSelfSignedCert disables TLS verification against the control plane.
	AllowSelfSignedCert bool `json:"allow_self_signed_cert"`

	// StartNebula controls whether the supervisor spawns the Nebula process.
	StartNebula bool `json:"start_nebula"`

	// MaxRestartAttempts is the consecutive-failure ceiling before the
	// supervisor enters the Failed state.
	MaxRestartAttempts int `json:"max_restart_attempts"`

	// MaxFetchRetries bounds the config-fetch retry loop.
	MaxFetchRetries int `json:"max_fetch_retries"`

	// ProcessCheckInterval is how often the background monitor polls isRunning.
	ProcessCheckInterval time.Duration `json:"process_check_interval"`

	// PostRestartWait is a settle delay observed after the supervisor starts
	// or restarts the managed process, before it is considered Running.
	PostRestartWait time.Duration `json:"post_restart_wait"`

	// StateDir is the directory persisted agent state lives under
	// (keypair, nebula.pid, metrics.json, cached_config.json).
	StateDir string `json:"state_dir"`
}

// defaultConfig returns an AgentConfig populated with the spec's defaults.
func defaultConfig() AgentConfig {
	return AgentConfig{
		PollIntervalHours:    1,
		StartNebula:          true,
		MaxRestartAttempts:   5,
		MaxFetchRetries:      5,
		ProcessCheckInterval: 30 * time.Second,
		PostRestartWait:      2 * time.Second,
		StateDir:             defaultStateDir(),
	}
}

// LoadConfig loads the agent configuration from the default file locations
// (development path first, then production), then applies environment
// variable overrides.
func LoadConfig() (*AgentConfig, error) {
	config := defaultConfig()

	path := ProductionConfigPath
	if _, err := os.Stat(DevelopmentConfigPath); err == nil {
		path = DevelopmentConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		if err := loadConfigFile(path, &config); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

func loadConfigFile(path string, config *AgentConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parse config JSON: %w", err)
	}
	return nil
}

// applyEnvOverrides overlays environment variables on top of the file
// config, matching spec's "file/env; env wins" precedence.
func applyEnvOverrides(config *AgentConfig) {
	if v, ok := os.LookupEnv("SERVER_URL"); ok {
		config.ServerURL = v
	}
	if v, ok := os.LookupEnv("CLIENT_TOKEN"); ok {
		config.ClientToken = v
	}
	if v, ok := envFloat("POLL_INTERVAL_HOURS"); ok {
		config.PollIntervalHours = v
	}
	if v, ok := envBool("ALLOW_SELF_SIGNED_CERT"); ok {
		config.AllowSelfSignedCert = v
	}
	if v, ok := envBool("START_NEBULA"); ok {
		config.StartNebula = v
	}
	if v, ok := envInt("MAX_RESTART_ATTEMPTS"); ok {
		config.MaxRestartAttempts = v
	}
	if v, ok := envInt("MAX_FETCH_RETRIES"); ok {
		config.MaxFetchRetries = v
	}
	if v, ok := envSeconds("PROCESS_CHECK_INTERVAL"); ok {
		config.ProcessCheckInterval = v
	}
	if v, ok := envSeconds("POST_RESTART_WAIT"); ok {
		config.PostRestartWait = v
	}
	if v, ok := os.LookupEnv("NEBULA_STATE_DIR"); ok {
		config.StateDir = v
	}
}

func envFloat(key string) (float64, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

func envInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	return i, err == nil
}

func envBool(key string) (bool, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	return b, err == nil
}

func envSeconds(key string) (time.Duration, bool) {
	v, ok := envFloat(key)
	if !ok {
		return 0, false
	}
	return time.Duration(v * float64(time.Second)), true
}

// Validate checks that the agent configuration is complete enough to run a cycle.
func (c *AgentConfig) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("SERVER_URL is required")
	}
	if c.ClientToken == "" {
		return fmt.Errorf("CLIENT_TOKEN is required")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state directory could not be determined")
	}
	return nil
}
