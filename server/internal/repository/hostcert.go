package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nebulafleet.dev/models"
)

type HostCertRepository struct {
	db *sql.DB
}

func NewHostCertRepository(db *sql.DB) *HostCertRepository {
	return &HostCertRepository{db: db}
}

func (r *HostCertRepository) Insert(ctx context.Context, c *models.HostCert) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO host_certs (id, node_id, pem, not_before, not_after, fingerprint,
			issued_for_ip_cidr, issued_for_groups_hash, issued_by_ca_id, cert_version,
			revoked, revoked_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.NodeID, c.PEM, c.NotBefore, c.NotAfter, c.Fingerprint,
		c.IssuedForIPCIDR, c.IssuedForGroupsHash, c.IssuedByCAID, c.CertVersion,
		c.Revoked, c.RevokedAt, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert host cert: %w", err)
	}
	return nil
}

// MostRecentNonRevoked returns the newest non-revoked cert for a node,
// the candidate CertManager.issueOrRotate checks for reuse.
func (r *HostCertRepository) MostRecentNonRevoked(ctx context.Context, nodeID string) (*models.HostCert, error) {
	row := r.db.QueryRowContext(ctx, hostCertSelect+`
		WHERE node_id = ? AND revoked = 0
		ORDER BY created_at DESC LIMIT 1`, nodeID)
	c, err := scanHostCert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *HostCertRepository) ListByNode(ctx context.Context, nodeID string) ([]*models.HostCert, error) {
	rows, err := r.db.QueryContext(ctx, hostCertSelect+`
		WHERE node_id = ? ORDER BY created_at DESC`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list host certs by node: %w", err)
	}
	defer rows.Close()

	var out []*models.HostCert
	for rows.Next() {
		c, err := scanHostCert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ActiveRevokedFingerprints returns every fingerprint that must be
// distributed in a node's blocklist: revoked, not yet expired, and
// carrying a non-null fingerprint.
func (r *HostCertRepository) ActiveRevokedFingerprints(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fingerprint FROM host_certs
		WHERE revoked = 1 AND not_after > ? AND fingerprint IS NOT NULL AND fingerprint != ''`, now)
	if err != nil {
		return nil, fmt.Errorf("query revoked fingerprints: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

func (r *HostCertRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE host_certs SET revoked = 1, revoked_at = ? WHERE id = ? AND revoked = 0`, at, id)
	if err != nil {
		return fmt.Errorf("revoke host cert: %w", err)
	}
	return requireAffected(res, models.ErrNotFound)
}

const hostCertSelect = `
	SELECT id, node_id, pem, not_before, not_after, fingerprint, issued_for_ip_cidr,
		issued_for_groups_hash, issued_by_ca_id, cert_version, revoked, revoked_at, created_at
	FROM host_certs`

func scanHostCert(row rowScanner) (*models.HostCert, error) {
	c := &models.HostCert{}
	err := row.Scan(&c.ID, &c.NodeID, &c.PEM, &c.NotBefore, &c.NotAfter, &c.Fingerprint,
		&c.IssuedForIPCIDR, &c.IssuedForGroupsHash, &c.IssuedByCAID, &c.CertVersion,
		&c.Revoked, &c.RevokedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan host cert: %w", err)
	}
	return c, nil
}
