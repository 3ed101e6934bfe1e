package models

import "time"

// Token authenticates a Node against /v1/client/config and the
// admin-facing node endpoints. Only the reissue response ever reveals
// the full Value; every other read exposes Preview only.
type Token struct {
	ID          string  `db:"id" json:"id"`
	NodeID      string  `db:"node_id" json:"node_id"`
	Hash        string  `db:"hash" json:"-"`
	Preview     string  `db:"preview" json:"preview"`
	IsActive    bool    `db:"is_active" json:"is_active"`
	OwnerUserID *string `db:"owner_user_id" json:"owner_user_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
