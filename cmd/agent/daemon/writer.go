package daemon

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nebulafleet.dev/sdk"
)

// ConfigFileNames are the files a fetched config response is written to.
const (
	ConfigFileName = "config.yml"
	CAFileName     = "ca.crt"
	CertFileName   = "host.crt"
)

// Writer applies a fetched config response to disk, only touching files
// when their content actually changed.
type Writer struct {
	configDir string
}

// NewWriter creates a Writer targeting configDir.
func NewWriter(configDir string) *Writer {
	return &Writer{configDir: configDir}
}

// Apply hash-diffs the fetched config against what's currently on disk and,
// if different, atomically replaces config.yml, host.crt and ca.crt.
// It reports whether anything was written.
func (w *Writer) Apply(resp *sdk.ConfigResponse) (changed bool, err error) {
	newHash := hashConfig(resp)
	currentHash, _ := w.currentHash()
	if currentHash != "" && currentHash == newHash {
		return false, nil
	}

	if err := os.MkdirAll(w.configDir, 0755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}

	caChain := strings.Join(resp.CAChainPEMs, "\n")

	if err := writeFileAtomic(filepath.Join(w.configDir, ConfigFileName), []byte(resp.Config), 0644); err != nil {
		return false, fmt.Errorf("write %s: %w", ConfigFileName, err)
	}
	if err := writeFileAtomic(filepath.Join(w.configDir, CertFileName), []byte(resp.ClientCertPEM), 0644); err != nil {
		return false, fmt.Errorf("write %s: %w", CertFileName, err)
	}
	if err := writeFileAtomic(filepath.Join(w.configDir, CAFileName), []byte(caChain), 0644); err != nil {
		return false, fmt.Errorf("write %s: %w", CAFileName, err)
	}

	return true, nil
}

// currentHash recomputes the hash of the files currently on disk, in the
// same shape hashConfig produces, so it can be compared directly.
func (w *Writer) currentHash() (string, error) {
	config, err := os.ReadFile(filepath.Join(w.configDir, ConfigFileName))
	if err != nil {
		return "", err
	}
	cert, err := os.ReadFile(filepath.Join(w.configDir, CertFileName))
	if err != nil {
		return "", err
	}
	ca, err := os.ReadFile(filepath.Join(w.configDir, CAFileName))
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write(config)
	h.Write(cert)
	h.Write(ca)
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// hashConfig computes SHA-256(config_yaml || client_cert_pem || join(ca_chain_pems)).
func hashConfig(resp *sdk.ConfigResponse) string {
	h := sha256.New()
	h.Write([]byte(resp.Config))
	h.Write([]byte(resp.ClientCertPEM))
	h.Write([]byte(strings.Join(resp.CAChainPEMs, "\n")))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// writeFileAtomic writes data to a temp file in the same directory as
// path, then renames it into place, guaranteeing the Nebula daemon never
// observes a partially-written file.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
