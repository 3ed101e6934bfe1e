package repository

import (
	"context"
	"database/sql"
	"fmt"

	"nebulafleet.dev/models"
)

// SecretScanAuditRepository persists the GitHub secret-scanning partner
// callback audit trail. Rows are never updated or deleted: a revoke
// callback that matches nothing still gets a row with is_active left
// at whatever the lookup found.
type SecretScanAuditRepository struct {
	db *sql.DB
}

func NewSecretScanAuditRepository(db *sql.DB) *SecretScanAuditRepository {
	return &SecretScanAuditRepository{db: db}
}

func (r *SecretScanAuditRepository) Insert(ctx context.Context, a *models.SecretScanAudit) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO secret_scanning_audit (action, token_preview, github_url, is_active, node_id)
		VALUES (?, ?, ?, ?, ?)`, a.Action, a.TokenPreview, a.GithubURL, a.IsActive, a.NodeID)
	if err != nil {
		return fmt.Errorf("insert secret scan audit: %w", err)
	}
	return nil
}

func (r *SecretScanAuditRepository) List(ctx context.Context, limit int) ([]*models.SecretScanAudit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, token_preview, github_url, is_active, node_id, created_at
		FROM secret_scanning_audit ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list secret scan audit: %w", err)
	}
	defer rows.Close()

	var out []*models.SecretScanAudit
	for rows.Next() {
		a := &models.SecretScanAudit{}
		if err := rows.Scan(&a.ID, &a.Action, &a.TokenPreview, &a.GithubURL, &a.IsActive,
			&a.NodeID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan secret scan audit: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
