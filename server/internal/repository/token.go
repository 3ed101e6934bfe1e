package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nebulafleet.dev/models"
)

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Insert(ctx context.Context, t *models.Token) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tokens (id, node_id, hash, preview, is_active, owner_user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.NodeID, t.Hash, t.Preview, t.IsActive, t.OwnerUserID, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// ByHash looks up the active token matching hash, used by the bearer
// auth middleware. Inactive tokens never authenticate.
func (r *TokenRepository) ByHash(ctx context.Context, hash string) (*models.Token, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, node_id, hash, preview, is_active, owner_user_id, created_at
		FROM tokens WHERE hash = ? AND is_active = 1`, hash)
	t, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrInvalidToken
	}
	return t, err
}

// All returns every token row. The secret-scanning verify/revoke
// endpoints receive raw token values rather than hashes, so they scan
// the full set and re-validate each candidate with token.Validate
// rather than hashing the caller-supplied value against an index.
func (r *TokenRepository) All(ctx context.Context) ([]*models.Token, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, node_id, hash, preview, is_active, owner_user_id, created_at FROM tokens`)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var out []*models.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TokenRepository) ListByNode(ctx context.Context, nodeID string) ([]*models.Token, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, node_id, hash, preview, is_active, owner_user_id, created_at
		FROM tokens WHERE node_id = ? ORDER BY created_at DESC`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list tokens by node: %w", err)
	}
	defer rows.Close()

	var out []*models.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TokenRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tokens SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate token: %w", err)
	}
	return nil
}

// DeactivateByHash deactivates a token by its hash, returning whether a
// row was matched. Used by the secret-scanning revoke flow.
func (r *TokenRepository) DeactivateByHash(ctx context.Context, hash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE tokens SET is_active = 0 WHERE hash = ? AND is_active = 1`, hash)
	if err != nil {
		return false, fmt.Errorf("deactivate token by hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func scanToken(row rowScanner) (*models.Token, error) {
	t := &models.Token{}
	err := row.Scan(&t.ID, &t.NodeID, &t.Hash, &t.Preview, &t.IsActive, &t.OwnerUserID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	return t, nil
}
