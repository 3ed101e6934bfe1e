// Package nebulacert wraps the external nebula-cert binary, the only
// component in the control plane that touches cryptographic key
// material directly. Every operation runs in a caller-supplied scratch
// directory and carries its own timeout.
package nebulacert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"nebulafleet.dev/models"
)

// Runner invokes nebula-cert. The zero value uses "nebula-cert" on PATH.
type Runner struct {
	// BinaryPath overrides the nebula-cert executable location; empty
	// means "nebula-cert" resolved via PATH.
	BinaryPath string
}

func (r *Runner) binary() string {
	if r.BinaryPath != "" {
		return r.BinaryPath
	}
	return "nebula-cert"
}

func (r *Runner) run(ctx context.Context, dir string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, r.binary(), args...)
	cmd.Dir = dir

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

// wrapFailure classifies a nonzero exit against known nebula-cert
// stderr messages so the caller can decide validation vs. subprocess
// classification.
func wrapFailure(op string, stderr string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("nebula-cert %s: %s: %w", op, msg, models.ErrSubprocessFailed)
}

// Keygen generates a new X25519 keypair in dir, writing host.key and
// host.pub (or the names given by keyFile/pubFile).
func (r *Runner) Keygen(ctx context.Context, dir, keyFile, pubFile string) error {
	_, stderr, err := r.run(ctx, dir, "keygen", "-out-key", keyFile, "-out-pub", pubFile)
	return wrapFailure("keygen", stderr, err)
}

// CAParams describes a `nebula-cert ca` invocation.
type CAParams struct {
	Name     string
	Duration time.Duration
}

// CAResult is the pair of files nebula-cert ca writes to the scratch
// directory.
type CAResult struct {
	CertPath string
	KeyPath  string
}

// CreateCA shells to `nebula-cert ca`, writing ca.crt/ca.key into dir.
func (r *Runner) CreateCA(ctx context.Context, dir string, p CAParams) (CAResult, error) {
	_, stderr, err := r.run(ctx, dir, "ca",
		"-name", p.Name,
		"-duration", durationFlag(p.Duration),
	)
	if err != nil {
		return CAResult{}, wrapFailure("ca", stderr, err)
	}
	return CAResult{
		CertPath: filepath.Join(dir, "ca.crt"),
		KeyPath:  filepath.Join(dir, "ca.key"),
	}, nil
}

// SignParams describes a `nebula-cert sign` invocation. IPs holds one or
// more "ip/prefix" values; a single entry yields a v1-shaped cert, more
// than one is the v2 multi-IP form.
type SignParams struct {
	Name      string
	IPs       []string
	Duration  time.Duration
	CACrtPath string
	CAKeyPath string
	InPubPath string
	OutCrtPath string
	Groups    []string
}

// Sign shells to `nebula-cert sign`, writing the signed host cert to
// p.OutCrtPath.
func (r *Runner) Sign(ctx context.Context, dir string, p SignParams) error {
	args := []string{
		"sign",
		"-name", p.Name,
		"-duration", durationFlag(p.Duration),
		"-ca-crt", p.CACrtPath,
		"-ca-key", p.CAKeyPath,
		"-in-pub", p.InPubPath,
		"-out-crt", p.OutCrtPath,
	}
	for _, ip := range p.IPs {
		args = append(args, "-ip", ip)
	}
	if len(p.Groups) > 0 {
		args = append(args, "-groups", strings.Join(p.Groups, ","))
	}

	_, stderr, err := r.run(ctx, dir, args...)
	return wrapFailure("sign", stderr, err)
}

// CertInfo is the subset of `nebula-cert print -json` output the control
// plane consumes.
type CertInfo struct {
	Details struct {
		Name      string   `json:"name"`
		Ips       []string `json:"ips"`
		NotBefore string   `json:"notBefore"`
		NotAfter  string   `json:"notAfter"`
		Groups    []string `json:"groups"`
	} `json:"details"`
	Fingerprint string `json:"fingerprint"`
}

// Print shells to `nebula-cert print -json -path <path>` and parses the
// result. A parse or exec failure is tolerated by callers that only need
// the fingerprint best-effort (step 6 of host-cert issuance); callers
// that need notBefore/notAfter (CA import) treat a failure as fatal.
func (r *Runner) Print(ctx context.Context, dir, path string) (CertInfo, error) {
	stdout, stderr, err := r.run(ctx, dir, "print", "-json", "-path", path)
	if err != nil {
		return CertInfo{}, wrapFailure("print", stderr, err)
	}
	var info CertInfo
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		return CertInfo{}, fmt.Errorf("parse nebula-cert print output: %w", err)
	}
	return info, nil
}

func durationFlag(d time.Duration) string {
	hours := int(d.Hours())
	if hours < 1 {
		hours = 1
	}
	return fmt.Sprintf("%dh", hours)
}
