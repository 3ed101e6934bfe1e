package nebulacert

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// writeFakeBinary drops a shell script standing in for nebula-cert that
// just echoes its arguments, so tests can assert on invocation shape
// without requiring the real binary on the test host.
func writeFakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binary harness is POSIX shell only")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "nebula-cert")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

func TestKeygenSuccess(t *testing.T) {
	bin := writeFakeBinary(t, `
touch "$3"
touch "$5"
exit 0
`)
	r := &Runner{BinaryPath: bin}
	dir := t.TempDir()

	if err := r.Keygen(context.Background(), dir, "host.key", "host.pub"); err != nil {
		t.Fatalf("Keygen() error = %v", err)
	}
}

func TestKeygenFailureWrapsSubprocessError(t *testing.T) {
	bin := writeFakeBinary(t, `
echo "boom" >&2
exit 1
`)
	r := &Runner{BinaryPath: bin}
	dir := t.TempDir()

	err := r.Keygen(context.Background(), dir, "host.key", "host.pub")
	if err == nil {
		t.Fatal("expected error from failing nebula-cert invocation")
	}
}

func TestCreateCAReturnsPaths(t *testing.T) {
	bin := writeFakeBinary(t, `
touch ca.crt
touch ca.key
exit 0
`)
	r := &Runner{BinaryPath: bin}
	dir := t.TempDir()

	res, err := r.CreateCA(context.Background(), dir, CAParams{Name: "test-ca", Duration: 24 * time.Hour})
	if err != nil {
		t.Fatalf("CreateCA() error = %v", err)
	}
	if res.CertPath != filepath.Join(dir, "ca.crt") {
		t.Errorf("CertPath = %q", res.CertPath)
	}
	if res.KeyPath != filepath.Join(dir, "ca.key") {
		t.Errorf("KeyPath = %q", res.KeyPath)
	}
}

func TestPrintParsesJSON(t *testing.T) {
	bin := writeFakeBinary(t, `
cat <<'EOF'
{"details":{"name":"n1","ips":["10.0.0.1/16"],"notBefore":"2026-01-01T00:00:00Z","notAfter":"2027-01-01T00:00:00Z","groups":["web"]},"fingerprint":"abc123"}
EOF
exit 0
`)
	r := &Runner{BinaryPath: bin}
	dir := t.TempDir()

	info, err := r.Print(context.Background(), dir, "host.crt")
	if err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if info.Fingerprint != "abc123" {
		t.Errorf("Fingerprint = %q", info.Fingerprint)
	}
	if info.Details.Name != "n1" {
		t.Errorf("Details.Name = %q", info.Details.Name)
	}
}

func TestDurationFlagFloorsToOneHour(t *testing.T) {
	if got := durationFlag(30 * time.Minute); got != "1h" {
		t.Errorf("durationFlag(30m) = %q, want 1h", got)
	}
	if got := durationFlag(72 * time.Hour); got != "72h" {
		t.Errorf("durationFlag(72h) = %q, want 72h", got)
	}
}
