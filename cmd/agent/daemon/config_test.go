package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAgentConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  AgentConfig
		wantErr bool
	}{
		{
			name: "valid config",
			config: AgentConfig{
				ServerURL:   "https://fleet.example.com",
				ClientToken: "tok",
				StateDir:    "/var/lib/nebula",
			},
			wantErr: false,
		},
		{
			name: "missing server URL",
			config: AgentConfig{
				ClientToken: "tok",
				StateDir:    "/var/lib/nebula",
			},
			wantErr: true,
		},
		{
			name: "missing client token",
			config: AgentConfig{
				ServerURL: "https://fleet.example.com",
				StateDir:  "/var/lib/nebula",
			},
			wantErr: true,
		},
		{
			name: "missing state dir",
			config: AgentConfig{
				ServerURL:   "https://fleet.example.com",
				ClientToken: "tok",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("AgentConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "agent.json")
	if err := os.WriteFile(configPath, []byte(`{"server_url":"https://file.example.com","client_token":"file-token"}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)
	os.Rename(configPath, filepath.Join(tmpDir, "dev_config.json"))

	os.Setenv("CLIENT_TOKEN", "env-token")
	os.Setenv("NEBULA_STATE_DIR", tmpDir)
	defer os.Unsetenv("CLIENT_TOKEN")
	defer os.Unsetenv("NEBULA_STATE_DIR")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.ServerURL != "https://file.example.com" {
		t.Errorf("expected file-provided server_url to survive, got %q", config.ServerURL)
	}
	if config.ClientToken != "env-token" {
		t.Errorf("expected env CLIENT_TOKEN to win over file, got %q", config.ClientToken)
	}
	if config.StateDir != tmpDir {
		t.Errorf("expected NEBULA_STATE_DIR override, got %q", config.StateDir)
	}
}

func TestLoadConfig_MissingRequiredFieldsFails(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	os.Unsetenv("SERVER_URL")
	os.Unsetenv("CLIENT_TOKEN")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() expected error when SERVER_URL/CLIENT_TOKEN are unset")
	}
}

func TestEnvHelpers(t *testing.T) {
	os.Setenv("TEST_FLOAT", "2.5")
	os.Setenv("TEST_INT", "7")
	os.Setenv("TEST_BOOL", "true")
	os.Setenv("TEST_SECONDS", "1.5")
	defer os.Unsetenv("TEST_FLOAT")
	defer os.Unsetenv("TEST_INT")
	defer os.Unsetenv("TEST_BOOL")
	defer os.Unsetenv("TEST_SECONDS")

	if v, ok := envFloat("TEST_FLOAT"); !ok || v != 2.5 {
		t.Errorf("envFloat = %v, %v", v, ok)
	}
	if v, ok := envInt("TEST_INT"); !ok || v != 7 {
		t.Errorf("envInt = %v, %v", v, ok)
	}
	if v, ok := envBool("TEST_BOOL"); !ok || v != true {
		t.Errorf("envBool = %v, %v", v, ok)
	}
	if v, ok := envSeconds("TEST_SECONDS"); !ok || v.Seconds() != 1.5 {
		t.Errorf("envSeconds = %v, %v", v, ok)
	}
	if _, ok := envFloat("TEST_MISSING"); ok {
		t.Error("envFloat should report !ok for unset var")
	}
}
