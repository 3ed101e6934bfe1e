package models

import "time"

// SecretScanAudit is a write-once row recording every secret-scanning
// partner callback, kept regardless of whether the token was found so
// the audit trail reflects what GitHub actually reported.
type SecretScanAudit struct {
	ID           int64     `db:"id" json:"id"`
	Action       string    `db:"action" json:"action"` // "verify" | "revoke"
	TokenPreview string    `db:"token_preview" json:"token_preview"`
	GithubURL    string    `db:"github_url" json:"github_url,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	NodeID       *string   `db:"node_id" json:"node_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
