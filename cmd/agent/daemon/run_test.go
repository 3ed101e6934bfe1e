package daemon

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"nebulafleet.dev/sdk"
)

func selfSignedCertPEM(t *testing.T, notAfter time.Time) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-node"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

func TestCertExpiry(t *testing.T) {
	expiry := time.Now().Add(72 * time.Hour).Truncate(time.Second)
	certPEM := selfSignedCertPEM(t, expiry)

	got, err := CertExpiry(certPEM)
	if err != nil {
		t.Fatalf("CertExpiry: %v", err)
	}
	if !got.Equal(expiry) {
		t.Errorf("CertExpiry = %v, want %v", got, expiry)
	}
}

func TestCertExpiry_InvalidPEM(t *testing.T) {
	if _, err := CertExpiry("not a cert"); err == nil {
		t.Error("expected error for invalid PEM")
	}
}

func TestLoadCachedConfig_RoundTrip(t *testing.T) {
	stateDir := t.TempDir()
	resp := &sdk.ConfigResponse{Config: "pki: {}\n", ClientCertPEM: "cert", CAChainPEMs: []string{"ca"}}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stateDir, CachedConfigFile), data, 0644); err != nil {
		t.Fatalf("write cache: %v", err)
	}

	got, err := LoadCachedConfig(stateDir)
	if err != nil {
		t.Fatalf("LoadCachedConfig: %v", err)
	}
	if got.Config != resp.Config || got.ClientCertPEM != resp.ClientCertPEM {
		t.Errorf("LoadCachedConfig = %+v, want %+v", got, resp)
	}
}

func TestLoadCachedConfig_Missing(t *testing.T) {
	if _, err := LoadCachedConfig(t.TempDir()); err == nil {
		t.Error("expected error when no cached config exists")
	}
}

func TestRunner_RunOnce(t *testing.T) {
	stateDir := t.TempDir()
	binDir := t.TempDir()

	writeMockNebulaBinary(t, binDir, `echo "Nebula version 1.9.7"`)
	nebulaCertScript := "#!/bin/sh\n" +
		`touch "$3" "$5"` + "\n"
	os.WriteFile(filepath.Join(binDir, "nebula-cert"), []byte(nebulaCertScript), 0755)

	oldPath := os.Getenv("PATH")
	os.Setenv("PATH", binDir+":"+oldPath)
	defer os.Setenv("PATH", oldPath)

	expiry := time.Now().Add(72 * time.Hour)
	certPEM := selfSignedCertPEM(t, expiry)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/client/config":
			resp := sdk.ConfigResponse{
				Config:        "pki: {}\n",
				ClientCertPEM: certPEM,
				CAChainPEMs:   []string{"ca-chain"},
			}
			json.NewEncoder(w).Encode(resp)
		case "/v1/version":
			json.NewEncoder(w).Encode(sdk.VersionResponse{ManagedNebulaVersion: "1.9.7"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	config := &AgentConfig{
		ServerURL:   server.URL,
		ClientToken: "test-token",
		StateDir:    stateDir,
	}

	runner, err := NewRunner(config, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if err := runner.RunOnce(context.Background(), nil); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if _, err := os.Stat(filepath.Join(stateDir, ConfigFileName)); err != nil {
		t.Errorf("expected config.yml to be written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(stateDir, CertFileName)); err != nil {
		t.Errorf("expected host.crt to be written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(stateDir, CAFileName)); err != nil {
		t.Errorf("expected ca.crt to be written: %v", err)
	}
}
