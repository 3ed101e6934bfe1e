package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"nebulafleet.dev/models"
)

// SettingsRepository persists the singleton global_settings row and the
// free-form system_settings key/value table.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// EnsureGlobalSettings inserts the singleton row with defaults if it
// does not already exist, called once at startup.
func (r *SettingsRepository) EnsureGlobalSettings(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO global_settings (id) VALUES (1)`)
	if err != nil {
		return fmt.Errorf("ensure global settings: %w", err)
	}
	return nil
}

func (r *SettingsRepository) GetGlobalSettings(ctx context.Context) (*models.GlobalSettings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lighthouse_port, lighthouse_hosts, punchy_enabled, default_cidr_pool,
			cert_version, nebula_version, client_docker_image, server_url, docker_compose_template
		FROM global_settings WHERE id = 1`)

	s := &models.GlobalSettings{}
	var hosts string
	err := row.Scan(&s.ID, &s.LighthousePort, &hosts, &s.PunchyEnabled, &s.DefaultCIDRPool,
		&s.CertVersion, &s.NebulaVersion, &s.ClientDockerImage, &s.ServerURL, &s.DockerComposeTemplate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan global settings: %w", err)
	}
	if hosts != "" {
		s.LighthouseHosts = strings.Split(hosts, ",")
	}
	return s, nil
}

func (r *SettingsRepository) UpdateGlobalSettings(ctx context.Context, s *models.GlobalSettings) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE global_settings SET lighthouse_port = ?, lighthouse_hosts = ?, punchy_enabled = ?,
			default_cidr_pool = ?, cert_version = ?, nebula_version = ?, client_docker_image = ?,
			server_url = ?, docker_compose_template = ?
		WHERE id = 1`,
		s.LighthousePort, strings.Join(s.LighthouseHosts, ","), s.PunchyEnabled, s.DefaultCIDRPool,
		s.CertVersion, s.NebulaVersion, s.ClientDockerImage, s.ServerURL, s.DockerComposeTemplate)
	if err != nil {
		return fmt.Errorf("update global settings: %w", err)
	}
	return nil
}

func (r *SettingsRepository) GetSystemSetting(ctx context.Context, key string) (*models.SystemSetting, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT key, value, updated_at, updated_by FROM system_settings WHERE key = ?`, key)
	s := &models.SystemSetting{}
	err := row.Scan(&s.Key, &s.Value, &s.UpdatedAt, &s.UpdatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan system setting: %w", err)
	}
	return s, nil
}

// SetSystemSetting upserts a key/value row, recording who (if anyone)
// made the change.
func (r *SettingsRepository) SetSystemSetting(ctx context.Context, key, value string, updatedBy *string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO system_settings (key, value, updated_by) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_by = excluded.updated_by,
			updated_at = CURRENT_TIMESTAMP`, key, value, updatedBy)
	if err != nil {
		return fmt.Errorf("set system setting: %w", err)
	}
	return nil
}
