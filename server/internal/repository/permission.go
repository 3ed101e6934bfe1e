package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"nebulafleet.dev/models"
)

// UserGroupRepository persists the unit of authorization: a named group
// of users, optionally flagged admin (which implicitly grants every
// permission without an explicit Permission row).
type UserGroupRepository struct {
	db *sql.DB
}

func NewUserGroupRepository(db *sql.DB) *UserGroupRepository {
	return &UserGroupRepository{db: db}
}

func (r *UserGroupRepository) Insert(ctx context.Context, g *models.UserGroup) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_groups (id, name, is_admin) VALUES (?, ?, ?)`, g.ID, g.Name, g.IsAdmin)
	if err != nil {
		return fmt.Errorf("insert user group: %w", err)
	}
	return nil
}

func (r *UserGroupRepository) Get(ctx context.Context, id string) (*models.UserGroup, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, is_admin FROM user_groups WHERE id = ?`, id)
	g := &models.UserGroup{}
	err := row.Scan(&g.ID, &g.Name, &g.IsAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user group: %w", err)
	}
	return g, nil
}

func (r *UserGroupRepository) List(ctx context.Context) ([]*models.UserGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, is_admin FROM user_groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list user groups: %w", err)
	}
	defer rows.Close()

	var out []*models.UserGroup
	for rows.Next() {
		g := &models.UserGroup{}
		if err := rows.Scan(&g.ID, &g.Name, &g.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan user group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ForUser returns every group userID belongs to.
func (r *UserGroupRepository) ForUser(ctx context.Context, userID string) ([]*models.UserGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.is_admin FROM user_groups g
		JOIN user_group_memberships m ON m.user_group_id = g.id
		WHERE m.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user's groups: %w", err)
	}
	defer rows.Close()

	var out []*models.UserGroup
	for rows.Next() {
		g := &models.UserGroup{}
		if err := rows.Scan(&g.ID, &g.Name, &g.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan user group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// CountAdminMembers counts distinct users belonging to any admin group,
// used to refuse a removal that would leave zero administrators.
func (r *UserGroupRepository) CountAdminMembers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT m.user_id) FROM user_group_memberships m
		JOIN user_groups g ON g.id = m.user_group_id
		WHERE g.is_admin = 1`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count admin members: %w", err)
	}
	return n, nil
}

func (r *UserGroupRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user group: %w", err)
	}
	return requireAffected(res, models.ErrNotFound)
}

// UserGroupMembershipRepository persists user-to-group links.
type UserGroupMembershipRepository struct {
	db *sql.DB
}

func NewUserGroupMembershipRepository(db *sql.DB) *UserGroupMembershipRepository {
	return &UserGroupMembershipRepository{db: db}
}

func (r *UserGroupMembershipRepository) Insert(ctx context.Context, m *models.UserGroupMembership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_group_memberships (id, user_id, user_group_id) VALUES (?, ?, ?)`,
		m.ID, m.UserID, m.UserGroupID)
	if err != nil {
		return fmt.Errorf("insert user group membership: %w", err)
	}
	return nil
}

func (r *UserGroupMembershipRepository) Delete(ctx context.Context, userID, userGroupID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM user_group_memberships WHERE user_id = ? AND user_group_id = ?`, userID, userGroupID)
	if err != nil {
		return fmt.Errorf("delete user group membership: %w", err)
	}
	return requireAffected(res, models.ErrNotFound)
}

// PermissionRepository persists the (resource, action) catalog grantable
// to user groups.
type PermissionRepository struct {
	db *sql.DB
}

func NewPermissionRepository(db *sql.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) Insert(ctx context.Context, p *models.Permission) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO permissions (id, resource, action) VALUES (?, ?, ?)`, p.ID, p.Resource, p.Action)
	if err != nil {
		return fmt.Errorf("insert permission: %w", err)
	}
	return nil
}

func (r *PermissionRepository) List(ctx context.Context) ([]*models.Permission, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, resource, action FROM permissions ORDER BY resource, action`)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	var out []*models.Permission
	for rows.Next() {
		p := &models.Permission{}
		if err := rows.Scan(&p.ID, &p.Resource, &p.Action); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ClientPermissionRepository grants per-node actions to user groups,
// independent of node ownership.
type ClientPermissionRepository struct {
	db *sql.DB
}

func NewClientPermissionRepository(db *sql.DB) *ClientPermissionRepository {
	return &ClientPermissionRepository{db: db}
}

func (r *ClientPermissionRepository) Insert(ctx context.Context, p *models.ClientPermission) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO client_permissions (id, node_id, user_group_id, action) VALUES (?, ?, ?, ?)`,
		p.ID, p.NodeID, p.UserGroupID, p.Action)
	if err != nil {
		return fmt.Errorf("insert client permission: %w", err)
	}
	return nil
}

func (r *ClientPermissionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM client_permissions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete client permission: %w", err)
	}
	return requireAffected(res, models.ErrNotFound)
}

// Allows reports whether any of userGroupIDs has been granted action on
// nodeID, independent of ownership or admin-group status (callers should
// check IsAdmin separately for the implicit grant-everything shortcut).
func (r *ClientPermissionRepository) Allows(ctx context.Context, nodeID string, userGroupIDs []string, action models.ClientPermissionAction) (bool, error) {
	if len(userGroupIDs) == 0 {
		return false, nil
	}
	placeholders := make([]string, len(userGroupIDs))
	args := make([]any, 0, len(userGroupIDs)+2)
	args = append(args, nodeID)
	for i, id := range userGroupIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, string(action))

	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM client_permissions
		WHERE node_id = ? AND user_group_id IN (%s) AND action = ?`, strings.Join(placeholders, ","))

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check client permission: %w", err)
	}
	return n > 0, nil
}
