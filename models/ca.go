package models

import "time"

// CertVersion identifies the Nebula certificate format a CA or host cert
// was issued under.
type CertVersion string

const (
	CertVersionV1     CertVersion = "v1"
	CertVersionV2     CertVersion = "v2"
	CertVersionHybrid CertVersion = "hybrid"
)

// CA is a certificate authority in the two-level hierarchy: either a
// signing CA (has a private key) or an imported public CA retained for
// peer-verification continuity.
type CA struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	PEMCert  string `db:"pem_cert" json:"pem_cert"`
	PEMKey   string `db:"pem_key" json:"-"` // never serialized to clients

	NotBefore time.Time `db:"not_before" json:"not_before"`
	NotAfter  time.Time `db:"not_after" json:"not_after"`

	// IsActive marks a CA that is still distributed to nodes.
	IsActive bool `db:"is_active" json:"is_active"`
	// IsPrevious marks a CA superseded by a newer signing CA of the same
	// CertVersion, kept in the distributed bundle during the overlap
	// window.
	IsPrevious bool `db:"is_previous" json:"is_previous"`
	// CanSign is false for CAs imported without a private key.
	CanSign bool `db:"can_sign" json:"can_sign"`
	// IncludeInConfig controls whether this CA's PEM is placed in the
	// inline pki.ca bundle emitted to nodes.
	IncludeInConfig bool `db:"include_in_config" json:"include_in_config"`

	CertVersion   CertVersion `db:"cert_version" json:"cert_version"`
	NebulaVersion string      `db:"nebula_version" json:"nebula_version,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsSigning reports whether the CA can currently sign host certificates
// for fresh issuance (active, has a key, and not yet expired).
func (c *CA) IsSigning(now time.Time) bool {
	return c.IsActive && c.CanSign && c.NotAfter.After(now)
}
