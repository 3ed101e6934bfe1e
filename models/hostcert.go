package models

import "time"

// HostCert is a node's issued Nebula certificate. Certs are never
// deleted; the newest non-revoked row is the current one (see
// internal/certmanager).
type HostCert struct {
	ID     string `db:"id" json:"id"`
	NodeID string `db:"node_id" json:"node_id"`
	PEM    string `db:"pem" json:"pem"`

	NotBefore time.Time `db:"not_before" json:"not_before"`
	NotAfter  time.Time `db:"not_after" json:"not_after"`

	Fingerprint *string `db:"fingerprint" json:"fingerprint,omitempty"`

	IssuedForIPCIDR     string      `db:"issued_for_ip_cidr" json:"issued_for_ip_cidr"`
	IssuedForGroupsHash string      `db:"issued_for_groups_hash" json:"issued_for_groups_hash"`
	IssuedByCAID        string      `db:"issued_by_ca_id" json:"issued_by_ca_id"`
	CertVersion         CertVersion `db:"cert_version" json:"cert_version"`

	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Reusable reports whether this cert still satisfies the reissue-or-reuse
// test from the fingerprint tuple, given the candidate inputs. The
// minimum-remaining-validity check is the caller's responsibility since
// it depends on "now".
func (h *HostCert) Reusable(ipCIDR, groupsHash string, certVersion CertVersion, signingCAID string) bool {
	return !h.Revoked &&
		h.IssuedForIPCIDR == ipCIDR &&
		h.IssuedForGroupsHash == groupsHash &&
		h.CertVersion == certVersion &&
		h.IssuedByCAID == signingCAID
}
