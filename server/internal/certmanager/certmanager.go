// Package certmanager owns the two-level certificate hierarchy: signing
// CA lifecycle (create, rotate, overlap, retire) and per-node host
// certificate issuance, reuse, and revocation.
package certmanager

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/logging"
	"nebulafleet.dev/server/internal/nebulacert"
	"nebulafleet.dev/server/internal/repository"
)

// IDGenerator returns a new unique identifier; production wiring uses
// uuid.NewString, tests can inject a deterministic sequence.
type IDGenerator func() string

// Clock returns the current time; production wiring uses time.Now,
// tests inject a fixed instant for reproducible expiry math.
type Clock func() time.Time

// Config bundles the lifetime parameters the CA/cert issuance and
// rotation algorithms depend on.
type Config struct {
	CADefaultValidityDays  int
	CAOverlapDays          int
	CARotateAtDays         int
	ClientCertValidityDays int
	// ManagedNebulaVersion is the Nebula release the control plane
	// targets; gates v2 CA creation (requires >= 1.10.0).
	ManagedNebulaVersion string
	ScratchRoot           string
}

// Manager implements CA lifecycle and host-cert issue-or-reuse.
type Manager struct {
	db        *sql.DB
	cas       *repository.CARepository
	hostCerts *repository.HostCertRepository
	cert      *nebulacert.Runner
	logger    *zap.Logger
	cfg       Config
	newID     IDGenerator
	now       Clock
}

func New(db *sql.DB, cas *repository.CARepository, hostCerts *repository.HostCertRepository, cert *nebulacert.Runner, logger *zap.Logger, cfg Config, newID IDGenerator, now Clock) *Manager {
	if newID == nil {
		newID = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{db: db, cas: cas, hostCerts: hostCerts, cert: cert, logger: logger, cfg: cfg, newID: newID, now: now}
}

func (m *Manager) scratchDir() (string, func(), error) {
	dir, err := os.MkdirTemp(m.cfg.ScratchRoot, "nebulafleet-cert-*")
	if err != nil {
		return "", nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

func (m *Manager) supportsV2() bool {
	v := normalizeVersion(m.cfg.ManagedNebulaVersion)
	if v == "" {
		return false
	}
	return semver.Compare(v, "v1.10.0") >= 0
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// CreateCA shells out to `nebula-cert ca`, demotes any prior active
// signing CA of the same cert_version to previous/non-signing, and
// persists the new CA.
func (m *Manager) CreateCA(ctx context.Context, name string, certVersion models.CertVersion) (*models.CA, error) {
	if certVersion == models.CertVersionV2 && !m.supportsV2() {
		return nil, models.ErrUnsupportedCertVersion
	}

	dir, cleanup, err := m.scratchDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	duration := time.Duration(m.cfg.CADefaultValidityDays) * 24 * time.Hour
	res, err := m.cert.CreateCA(ctx, dir, nebulacert.CAParams{Name: name, Duration: duration})
	if err != nil {
		return nil, err
	}

	pemCert, err := os.ReadFile(res.CertPath)
	if err != nil {
		return nil, fmt.Errorf("read generated ca cert: %w", err)
	}
	pemKey, err := os.ReadFile(res.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read generated ca key: %w", err)
	}

	now := m.now()
	ca := &models.CA{
		ID:              m.newID(),
		Name:            name,
		PEMCert:         string(pemCert),
		PEMKey:          string(pemKey),
		NotBefore:       now,
		NotAfter:        now.Add(duration),
		IsActive:        true,
		IsPrevious:      false,
		CanSign:         true,
		IncludeInConfig: true,
		CertVersion:     certVersion,
		NebulaVersion:   m.cfg.ManagedNebulaVersion,
		CreatedAt:       now,
	}

	dbTx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ca creation tx: %w", err)
	}
	defer dbTx.Rollback()

	if err := m.cas.DemotePreviousSigning(ctx, dbTx, certVersion); err != nil {
		return nil, err
	}
	if err := m.cas.Insert(ctx, ca); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ca creation: %w", err)
	}

	logging.Info(ctx, "created signing CA", zap.String(logging.FieldCAID, ca.ID), zap.String("cert_version", string(certVersion)))
	return ca, nil
}

// ImportExistingCA stores an operator-supplied CA cert+key as-is,
// deriving notBefore/notAfter via `nebula-cert print -json`.
func (m *Manager) ImportExistingCA(ctx context.Context, name, pemCert, pemKey string, certVersion models.CertVersion) (*models.CA, error) {
	ca, err := m.prepareImportedCA(ctx, name, pemCert, pemKey, certVersion)
	if err != nil {
		return nil, err
	}
	ca.IsActive = true
	ca.IsPrevious = false
	ca.CanSign = pemKey != ""
	if err := m.cas.Insert(ctx, ca); err != nil {
		return nil, err
	}
	return ca, nil
}

// ImportPublicCA stores a public-only CA (no key) used solely for peer
// verification continuity; it never signs and is stored inactive, and it
// stays in the distributed CA set (IncludedInConfig) until its notAfter.
func (m *Manager) ImportPublicCA(ctx context.Context, name, pemCert string, certVersion models.CertVersion) (*models.CA, error) {
	ca, err := m.prepareImportedCA(ctx, name, pemCert, "", certVersion)
	if err != nil {
		return nil, err
	}
	ca.IsActive = false
	ca.IsPrevious = true
	ca.CanSign = false
	if err := m.cas.Insert(ctx, ca); err != nil {
		return nil, err
	}
	return ca, nil
}

// prepareImportedCA inspects an operator-supplied CA cert and builds the
// row to persist; callers set the active/previous/canSign flags before
// inserting.
func (m *Manager) prepareImportedCA(ctx context.Context, name, pemCert, pemKey string, certVersion models.CertVersion) (*models.CA, error) {
	dir, cleanup, err := m.scratchDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	certPath := filepath.Join(dir, "ca.crt")
	if err := os.WriteFile(certPath, []byte(pemCert), 0o600); err != nil {
		return nil, fmt.Errorf("stage imported ca cert: %w", err)
	}

	info, err := m.cert.Print(ctx, dir, certPath)
	if err != nil {
		return nil, fmt.Errorf("inspect imported ca: %w", err)
	}
	notBefore, notAfter, err := parseValidity(info)
	if err != nil {
		return nil, err
	}

	return &models.CA{
		ID:              m.newID(),
		Name:            name,
		PEMCert:         pemCert,
		PEMKey:          pemKey,
		NotBefore:       notBefore,
		NotAfter:        notAfter,
		IncludeInConfig: true,
		CertVersion:     certVersion,
		CreatedAt:       m.now(),
	}, nil
}

func parseValidity(info nebulacert.CertInfo) (time.Time, time.Time, error) {
	nb, err := time.Parse(time.RFC3339, info.Details.NotBefore)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse notBefore: %w", err)
	}
	na, err := time.Parse(time.RFC3339, info.Details.NotAfter)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse notAfter: %w", err)
	}
	return nb, na, nil
}

// signingCAIdentity returns the reuse-check identity for certVersion: a
// single CA id for v1/v2, or the comma-joined v1+v2 CA ids for hybrid,
// so that rotating either half of a hybrid pair forces reissue.
func (m *Manager) signingCAIdentity(ctx context.Context, certVersion models.CertVersion) (string, error) {
	if certVersion != models.CertVersionHybrid {
		ca, err := m.cas.ActiveSigningCA(ctx, certVersion)
		if err != nil {
			return "", err
		}
		return ca.ID, nil
	}
	v1CA, err := m.cas.ActiveSigningCA(ctx, models.CertVersionV1)
	if err != nil {
		return "", err
	}
	v2CA, err := m.cas.ActiveSigningCA(ctx, models.CertVersionV2)
	if err != nil {
		return "", err
	}
	return v1CA.ID + "," + v2CA.ID, nil
}

// signOne stages one signing CA and public key into a scratch dir,
// shells out to nebula-cert sign, and returns the resulting PEM and
// fingerprint.
func (m *Manager) signOne(ctx context.Context, signingCA *models.CA, p IssueOrRotateParams, ips []string, duration time.Duration) (pem string, fingerprint *string, err error) {
	dir, cleanup, err := m.scratchDir()
	if err != nil {
		return "", nil, err
	}
	defer cleanup()

	caCrtPath := filepath.Join(dir, "ca.crt")
	caKeyPath := filepath.Join(dir, "ca.key")
	pubPath := filepath.Join(dir, "host.pub")
	outCrtPath := filepath.Join(dir, "host.crt")

	if err := os.WriteFile(caCrtPath, []byte(signingCA.PEMCert), 0o600); err != nil {
		return "", nil, fmt.Errorf("stage signing ca cert: %w", err)
	}
	if err := os.WriteFile(caKeyPath, []byte(signingCA.PEMKey), 0o600); err != nil {
		return "", nil, fmt.Errorf("stage signing ca key: %w", err)
	}
	if err := os.WriteFile(pubPath, []byte(p.PublicKeyPEM), 0o600); err != nil {
		return "", nil, fmt.Errorf("stage node public key: %w", err)
	}

	if err := m.cert.Sign(ctx, dir, nebulacert.SignParams{
		Name: p.Node.Name, IPs: ips, Duration: duration,
		CACrtPath: caCrtPath, CAKeyPath: caKeyPath, InPubPath: pubPath,
		OutCrtPath: outCrtPath, Groups: p.GroupNames,
	}); err != nil {
		return "", nil, err
	}

	pemBytes, err := os.ReadFile(outCrtPath)
	if err != nil {
		return "", nil, fmt.Errorf("read signed host cert: %w", err)
	}

	if info, err := m.cert.Print(ctx, dir, outCrtPath); err == nil {
		fp := info.Fingerprint
		fingerprint = &fp
	}

	return string(pemBytes), fingerprint, nil
}

// GroupsHash computes the deterministic fingerprint component for a
// node's group membership: SHA-256 of the sorted, comma-joined names.
func GroupsHash(groupNames []string) string {
	sorted := append([]string(nil), groupNames...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, ",")))
	return hex.EncodeToString(sum[:])
}

// IssueOrRotateParams are the inputs to IssueOrRotate.
type IssueOrRotateParams struct {
	Node        *models.Node
	PublicKeyPEM string
	PrimaryIP   string
	CIDRPrefix  int
	CertVersion models.CertVersion
	AllIPs      []string // additional addresses for v2 multi-IP certs; hybrid certs carry only the primary
	GroupNames  []string
}

// IssueOrRotate returns the node's current host cert, reusing the most
// recent non-revoked cert when the fingerprint tuple is unchanged and it
// has at least 7 days of validity remaining, and signing a fresh one
// otherwise.
func (m *Manager) IssueOrRotate(ctx context.Context, p IssueOrRotateParams) (*models.HostCert, error) {
	ipWithCIDR := fmt.Sprintf("%s/%d", p.PrimaryIP, p.CIDRPrefix)
	groupsHash := GroupsHash(p.GroupNames)

	existing, err := m.hostCerts.MostRecentNonRevoked(ctx, p.Node.ID)
	if err != nil {
		return nil, err
	}
	now := m.now()

	signingCAID, err := m.signingCAIdentity(ctx, p.CertVersion)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		reusable := existing.Reusable(ipWithCIDR, groupsHash, p.CertVersion, signingCAID) &&
			existing.NotAfter.Sub(now) >= 7*24*time.Hour
		if reusable {
			return existing, nil
		}
	}

	duration := time.Duration(m.cfg.ClientCertValidityDays) * 24 * time.Hour
	ips := []string{ipWithCIDR}
	ips = append(ips, p.AllIPs...)

	var pemParts []string
	var fingerprint *string
	switch p.CertVersion {
	case models.CertVersionHybrid:
		// Two single-IP certs, v1 then v2, concatenated into one PEM bundle.
		v1CA, err := m.cas.ActiveSigningCA(ctx, models.CertVersionV1)
		if err != nil {
			return nil, err
		}
		v2CA, err := m.cas.ActiveSigningCA(ctx, models.CertVersionV2)
		if err != nil {
			return nil, err
		}
		v1PEM, _, err := m.signOne(ctx, v1CA, p, []string{ipWithCIDR}, duration)
		if err != nil {
			return nil, err
		}
		v2PEM, v2Fingerprint, err := m.signOne(ctx, v2CA, p, []string{ipWithCIDR}, duration)
		if err != nil {
			return nil, err
		}
		pemParts = append(pemParts, v1PEM, v2PEM)
		fingerprint = v2Fingerprint
	default:
		signingCA, err := m.cas.ActiveSigningCA(ctx, p.CertVersion)
		if err != nil {
			return nil, err
		}
		pem, fp, err := m.signOne(ctx, signingCA, p, ips, duration)
		if err != nil {
			return nil, err
		}
		pemParts = append(pemParts, pem)
		fingerprint = fp
	}

	hc := &models.HostCert{
		ID:                  m.newID(),
		NodeID:              p.Node.ID,
		PEM:                 strings.Join(pemParts, ""),
		NotBefore:           now,
		NotAfter:            now.Add(duration),
		Fingerprint:         fingerprint,
		IssuedForIPCIDR:     ipWithCIDR,
		IssuedForGroupsHash: groupsHash,
		IssuedByCAID:        signingCAID,
		CertVersion:         p.CertVersion,
		CreatedAt:           now,
	}
	if err := m.hostCerts.Insert(ctx, hc); err != nil {
		return nil, err
	}
	return hc, nil
}

// Revoke marks a host cert revoked; revocation is terminal.
func (m *Manager) Revoke(ctx context.Context, certID string) error {
	return m.hostCerts.Revoke(ctx, certID, m.now())
}

// EnsureFutureCA creates a successor CA named "Rotated CA <date>" for
// every active signing CA within CARotateAtDays of expiry that has no
// successor yet (a newer active CA of the same cert_version already
// exists).
func (m *Manager) EnsureFutureCA(ctx context.Context) error {
	cas, err := m.cas.List(ctx)
	if err != nil {
		return err
	}
	now := m.now()
	rotateThreshold := time.Duration(m.cfg.CARotateAtDays) * 24 * time.Hour

	byVersion := map[models.CertVersion][]*models.CA{}
	for _, ca := range cas {
		byVersion[ca.CertVersion] = append(byVersion[ca.CertVersion], ca)
	}

	for version, group := range byVersion {
		var activeSigning, newestAny *models.CA
		for _, ca := range group {
			if ca.IsActive && ca.CanSign {
				activeSigning = ca
			}
			if newestAny == nil || ca.CreatedAt.After(newestAny.CreatedAt) {
				newestAny = ca
			}
		}
		if activeSigning == nil {
			continue
		}
		if activeSigning.NotAfter.Sub(now) > rotateThreshold {
			continue
		}
		if newestAny != activeSigning {
			continue // a successor already exists
		}
		name := fmt.Sprintf("Rotated CA %s", now.Format("2006-01-02"))
		if _, err := m.CreateCA(ctx, name, version); err != nil {
			return fmt.Errorf("ensure future ca for %s: %w", version, err)
		}
	}
	return nil
}

// CleanupOldCAs deactivates previous CAs whose overlap window has
// elapsed; they remain in the database for historical reference but are
// no longer distributed.
func (m *Manager) CleanupOldCAs(ctx context.Context) (int64, error) {
	cutoff := m.now().Add(-time.Duration(m.cfg.CAOverlapDays) * 24 * time.Hour)
	return m.cas.DeactivateExpiredOverlap(ctx, cutoff)
}
