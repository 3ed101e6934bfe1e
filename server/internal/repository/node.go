package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nebulafleet.dev/models"
)

type NodeRepository struct {
	db *sql.DB
}

func NewNodeRepository(db *sql.DB) *NodeRepository {
	return &NodeRepository{db: db}
}

func (r *NodeRepository) Insert(ctx context.Context, n *models.Node) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO nodes (id, name, is_lighthouse, public_ip, is_blocked, owner_user_id,
			ip_version, os_type, client_version, nebula_version, config_last_changed_at,
			last_config_download_at, last_version_report_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Name, n.IsLighthouse, n.PublicIP, n.IsBlocked, n.OwnerUserID,
		n.IPVersion, n.OSType, n.ClientVersion, n.NebulaVersion, n.ConfigLastChangedAt,
		n.LastConfigDownloadAt, n.LastVersionReportAt, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert node: %w", err)
	}
	return nil
}

func (r *NodeRepository) Get(ctx context.Context, id string) (*models.Node, error) {
	row := r.db.QueryRowContext(ctx, nodeSelect+` WHERE id = ?`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNodeNotFound
	}
	return n, err
}

// ListLighthousesInPool returns every lighthouse node that has a primary
// IP assignment within poolID, used to build a requester's static host map.
func (r *NodeRepository) ListLighthousesInPool(ctx context.Context, poolID string) ([]*models.Node, error) {
	rows, err := r.db.QueryContext(ctx, nodeSelect+`
		JOIN ip_assignments a ON a.node_id = nodes.id AND a.is_primary = 1
		WHERE nodes.is_lighthouse = 1 AND a.pool_id = ?`, poolID)
	if err != nil {
		return nil, fmt.Errorf("list lighthouses in pool: %w", err)
	}
	defer rows.Close()

	var out []*models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NodeRepository) List(ctx context.Context) ([]*models.Node, error) {
	rows, err := r.db.QueryContext(ctx, nodeSelect+` ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var out []*models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NodeRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE nodes SET is_blocked = ? WHERE id = ?`, blocked, id)
	if err != nil {
		return fmt.Errorf("set node blocked: %w", err)
	}
	return requireAffected(res, models.ErrNodeNotFound)
}

// TouchConfigDownload updates the bookkeeping fields set after a
// successful /v1/client/config fetch.
func (r *NodeRepository) TouchConfigDownload(ctx context.Context, id, clientVersion, nebulaVersion, osType string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE nodes SET last_config_download_at = ?, client_version = ?,
			nebula_version = ?, os_type = ?, last_version_report_at = ?
		WHERE id = ?`, at, clientVersion, nebulaVersion, osType, at, id)
	if err != nil {
		return fmt.Errorf("touch config download: %w", err)
	}
	return nil
}

// BumpConfigChanged marks the node's configuration as changed as of now,
// forcing cert reissuance on the node's next fetch via the fingerprint.
func (r *NodeRepository) BumpConfigChanged(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE nodes SET config_last_changed_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("bump config changed: %w", err)
	}
	return nil
}

func (r *NodeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	return requireAffected(res, models.ErrNodeNotFound)
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

const nodeSelect = `
	SELECT nodes.id, nodes.name, nodes.is_lighthouse, nodes.public_ip, nodes.is_blocked,
		nodes.owner_user_id, nodes.ip_version, nodes.os_type, nodes.client_version,
		nodes.nebula_version, nodes.config_last_changed_at, nodes.last_config_download_at,
		nodes.last_version_report_at, nodes.created_at
	FROM nodes`

func scanNode(row rowScanner) (*models.Node, error) {
	n := &models.Node{}
	err := row.Scan(&n.ID, &n.Name, &n.IsLighthouse, &n.PublicIP, &n.IsBlocked,
		&n.OwnerUserID, &n.IPVersion, &n.OSType, &n.ClientVersion, &n.NebulaVersion,
		&n.ConfigLastChangedAt, &n.LastConfigDownloadAt, &n.LastVersionReportAt, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan node: %w", err)
	}
	return n, nil
}
