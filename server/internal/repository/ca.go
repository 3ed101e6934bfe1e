package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nebulafleet.dev/models"
)

// CARepository persists CA rows with raw parameterized SQL.
type CARepository struct {
	db *sql.DB
}

func NewCARepository(db *sql.DB) *CARepository {
	return &CARepository{db: db}
}

func (r *CARepository) Insert(ctx context.Context, ca *models.CA) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cas (id, name, pem_cert, pem_key, not_before, not_after, is_active,
			is_previous, can_sign, include_in_config, cert_version, nebula_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ca.ID, ca.Name, ca.PEMCert, ca.PEMKey, ca.NotBefore, ca.NotAfter, ca.IsActive,
		ca.IsPrevious, ca.CanSign, ca.IncludeInConfig, ca.CertVersion, ca.NebulaVersion, ca.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ca: %w", err)
	}
	return nil
}

func (r *CARepository) Get(ctx context.Context, id string) (*models.CA, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, pem_cert, pem_key, not_before, not_after, is_active,
			is_previous, can_sign, include_in_config, cert_version, nebula_version, created_at
		FROM cas WHERE id = ?`, id)
	ca, err := scanCA(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCANotFound
	}
	return ca, err
}

// ActiveSigningCA returns the active, signing-capable CA of certVersion
// with the latest expiry, or ErrNoSigningCA if none qualifies.
func (r *CARepository) ActiveSigningCA(ctx context.Context, certVersion models.CertVersion) (*models.CA, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, pem_cert, pem_key, not_before, not_after, is_active,
			is_previous, can_sign, include_in_config, cert_version, nebula_version, created_at
		FROM cas
		WHERE is_active = 1 AND can_sign = 1 AND cert_version = ?
		ORDER BY not_after DESC LIMIT 1`, certVersion)
	ca, err := scanCA(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNoSigningCA
	}
	return ca, err
}

// IncludedInConfig returns every CA still eligible for distribution:
// included in config and not yet expired.
func (r *CARepository) IncludedInConfig(ctx context.Context, now time.Time) ([]*models.CA, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, pem_cert, pem_key, not_before, not_after, is_active,
			is_previous, can_sign, include_in_config, cert_version, nebula_version, created_at
		FROM cas
		WHERE include_in_config = 1 AND not_after > ?
		ORDER BY created_at ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("query included CAs: %w", err)
	}
	defer rows.Close()

	var out []*models.CA
	for rows.Next() {
		ca, err := scanCA(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

func (r *CARepository) List(ctx context.Context) ([]*models.CA, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, pem_cert, pem_key, not_before, not_after, is_active,
			is_previous, can_sign, include_in_config, cert_version, nebula_version, created_at
		FROM cas ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list CAs: %w", err)
	}
	defer rows.Close()

	var out []*models.CA
	for rows.Next() {
		ca, err := scanCA(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

// DemotePreviousSigning flips every active signing CA of certVersion to
// isPrevious=true, can_sign=false, keeping include_in_config=true for
// the overlap window. Used when a new signing CA is created.
func (r *CARepository) DemotePreviousSigning(ctx context.Context, tx *sql.Tx, certVersion models.CertVersion) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE cas SET is_previous = 1, can_sign = 0
		WHERE is_active = 1 AND can_sign = 1 AND cert_version = ?`, certVersion)
	if err != nil {
		return fmt.Errorf("demote previous signing CA: %w", err)
	}
	return nil
}

// DeactivateExpiredOverlap deactivates previous CAs whose overlap window
// (createdAt + overlapDays) has elapsed.
func (r *CARepository) DeactivateExpiredOverlap(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cas SET is_active = 0
		WHERE is_previous = 1 AND is_active = 1 AND created_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired overlap CAs: %w", err)
	}
	return res.RowsAffected()
}

// SetSigning promotes ca to the active signing CA for its cert_version,
// demoting whatever CA previously held that role.
func (r *CARepository) SetSigning(ctx context.Context, id string) error {
	ca, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set-signing tx: %w", err)
	}
	defer tx.Rollback()

	if err := r.DemotePreviousSigning(ctx, tx, ca.CertVersion); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE cas SET is_active = 1, is_previous = 0, can_sign = 1, include_in_config = 1
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("set signing ca: %w", err)
	}
	if err := requireAffected(res, models.ErrCANotFound); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *CARepository) Delete(ctx context.Context, id string) error {
	ca, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if ca.IsActive {
		return models.ErrCAStillActive
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM cas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete ca: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCA(row rowScanner) (*models.CA, error) {
	ca := &models.CA{}
	err := row.Scan(&ca.ID, &ca.Name, &ca.PEMCert, &ca.PEMKey, &ca.NotBefore, &ca.NotAfter,
		&ca.IsActive, &ca.IsPrevious, &ca.CanSign, &ca.IncludeInConfig, &ca.CertVersion,
		&ca.NebulaVersion, &ca.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan ca: %w", err)
	}
	return ca, nil
}
