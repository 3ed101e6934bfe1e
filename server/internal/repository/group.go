package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nebulafleet.dev/models"
)

// GroupRepository persists Nebula firewall group names and their
// many-to-many attachment to nodes.
type GroupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Insert(ctx context.Context, g *models.Group) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO groups (id, name) VALUES (?, ?)`, g.ID, g.Name)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (r *GroupRepository) Get(ctx context.Context, id string) (*models.Group, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name FROM groups WHERE id = ?`, id)
	g := &models.Group{}
	err := row.Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan group: %w", err)
	}
	return g, nil
}

func (r *GroupRepository) List(ctx context.Context) ([]*models.Group, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var out []*models.Group
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return requireAffected(res, models.ErrGroupNotFound)
}

// ListForNode returns the group names attached to a node, used when
// compiling a node's own Nebula identity into firewall rule matches.
func (r *GroupRepository) ListForNode(ctx context.Context, nodeID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.name FROM groups g
		JOIN node_groups ng ON ng.group_id = g.id
		WHERE ng.node_id = ?
		ORDER BY g.name`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list node groups: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan node group: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Attach adds nodeID as a member of groupID. Idempotent.
func (r *GroupRepository) Attach(ctx context.Context, nodeID, groupID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO node_groups (node_id, group_id) VALUES (?, ?)`, nodeID, groupID)
	if err != nil {
		return fmt.Errorf("attach node to group: %w", err)
	}
	return nil
}

func (r *GroupRepository) Detach(ctx context.Context, nodeID, groupID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM node_groups WHERE node_id = ? AND group_id = ?`, nodeID, groupID)
	if err != nil {
		return fmt.Errorf("detach node from group: %w", err)
	}
	return nil
}
