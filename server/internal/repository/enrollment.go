package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nebulafleet.dev/models"
)

// EnrollmentRepository persists single-use device enrollment hand-off
// codes.
type EnrollmentRepository struct {
	db *sql.DB
}

func NewEnrollmentRepository(db *sql.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) Insert(ctx context.Context, e *models.EnrollmentCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO enrollment_codes (code, node_id, expires_at, is_used) VALUES (?, ?, ?, ?)`,
		e.Code, e.NodeID, e.ExpiresAt, e.IsUsed)
	if err != nil {
		return fmt.Errorf("insert enrollment code: %w", err)
	}
	return nil
}

func (r *EnrollmentRepository) Get(ctx context.Context, code string) (*models.EnrollmentCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT code, node_id, expires_at, is_used FROM enrollment_codes WHERE code = ?`, code)
	e := &models.EnrollmentCode{}
	err := row.Scan(&e.Code, &e.NodeID, &e.ExpiresAt, &e.IsUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan enrollment code: %w", err)
	}
	return e, nil
}

// MarkUsed flips is_used, but only on a row that is still unused — a
// second call on an already-consumed code returns ErrNotFound rather
// than silently succeeding, so callers can detect a replay.
func (r *EnrollmentRepository) MarkUsed(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE enrollment_codes SET is_used = 1 WHERE code = ? AND is_used = 0`, code)
	if err != nil {
		return fmt.Errorf("mark enrollment code used: %w", err)
	}
	return requireAffected(res, models.ErrNotFound)
}

// DeleteExpired removes every code past its expiry, regardless of use.
// No scheduler job calls it.
func (r *EnrollmentRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM enrollment_codes WHERE expires_at < CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("delete expired enrollment codes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
