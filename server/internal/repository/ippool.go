package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nebulafleet.dev/models"
)

type IPPoolRepository struct {
	db *sql.DB
}

func NewIPPoolRepository(db *sql.DB) *IPPoolRepository {
	return &IPPoolRepository{db: db}
}

func (r *IPPoolRepository) Insert(ctx context.Context, p *models.IPPool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ip_pools (id, cidr, description) VALUES (?, ?, ?)`, p.ID, p.CIDR, p.Description)
	if err != nil {
		return fmt.Errorf("insert ip pool: %w", err)
	}
	return nil
}

func (r *IPPoolRepository) Get(ctx context.Context, id string) (*models.IPPool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, cidr, description FROM ip_pools WHERE id = ?`, id)
	p, err := scanIPPool(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPoolNotFound
	}
	return p, err
}

func (r *IPPoolRepository) ByCIDR(ctx context.Context, cidr string) (*models.IPPool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, cidr, description FROM ip_pools WHERE cidr = ?`, cidr)
	p, err := scanIPPool(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPoolNotFound
	}
	return p, err
}

func (r *IPPoolRepository) List(ctx context.Context) ([]*models.IPPool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, cidr, description FROM ip_pools ORDER BY cidr`)
	if err != nil {
		return nil, fmt.Errorf("list ip pools: %w", err)
	}
	defer rows.Close()

	var out []*models.IPPool
	for rows.Next() {
		p, err := scanIPPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *IPPoolRepository) Delete(ctx context.Context, id string) error {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ip_assignments WHERE pool_id = ?`, id).Scan(&count)
	if err != nil {
		return fmt.Errorf("count pool assignments: %w", err)
	}
	if count > 0 {
		return models.ErrPoolHasAssignments
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM ip_pools WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete ip pool: %w", err)
	}
	return requireAffected(res, models.ErrPoolNotFound)
}

func scanIPPool(row rowScanner) (*models.IPPool, error) {
	p := &models.IPPool{}
	if err := row.Scan(&p.ID, &p.CIDR, &p.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan ip pool: %w", err)
	}
	return p, nil
}

// IPGroupRepository persists per-pool IP sub-ranges.
type IPGroupRepository struct {
	db *sql.DB
}

func NewIPGroupRepository(db *sql.DB) *IPGroupRepository {
	return &IPGroupRepository{db: db}
}

func (r *IPGroupRepository) Insert(ctx context.Context, g *models.IPGroup) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ip_groups (id, pool_id, name, start_ip, end_ip) VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.PoolID, g.Name, g.StartIP, g.EndIP)
	if err != nil {
		return fmt.Errorf("insert ip group: %w", err)
	}
	return nil
}

func (r *IPGroupRepository) ListByPool(ctx context.Context, poolID string) ([]*models.IPGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pool_id, name, start_ip, end_ip FROM ip_groups WHERE pool_id = ?`, poolID)
	if err != nil {
		return nil, fmt.Errorf("list ip groups: %w", err)
	}
	defer rows.Close()

	var out []*models.IPGroup
	for rows.Next() {
		g := &models.IPGroup{}
		if err := rows.Scan(&g.ID, &g.PoolID, &g.Name, &g.StartIP, &g.EndIP); err != nil {
			return nil, fmt.Errorf("scan ip group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// IPAssignmentRepository persists per-node IP address assignments.
type IPAssignmentRepository struct {
	db *sql.DB
}

func NewIPAssignmentRepository(db *sql.DB) *IPAssignmentRepository {
	return &IPAssignmentRepository{db: db}
}

func (r *IPAssignmentRepository) Insert(ctx context.Context, a *models.IPAssignment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ip_assignments (id, node_id, ip_address, ip_version, is_primary, pool_id, ip_group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.NodeID, a.IPAddress, a.IPVersion, a.IsPrimary, a.PoolID, a.IPGroupID)
	if err != nil {
		return fmt.Errorf("insert ip assignment: %w", err)
	}
	return nil
}

// AssignedAddresses returns every address already taken within a pool,
// used by the allocator to skip occupied hosts while scanning.
func (r *IPAssignmentRepository) AssignedAddresses(ctx context.Context, poolID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ip_address FROM ip_assignments WHERE pool_id = ?`, poolID)
	if err != nil {
		return nil, fmt.Errorf("query assigned addresses: %w", err)
	}
	defer rows.Close()

	taken := make(map[string]bool)
	for rows.Next() {
		var ip string
		if err := rows.Scan(&ip); err != nil {
			return nil, fmt.Errorf("scan assigned address: %w", err)
		}
		taken[ip] = true
	}
	return taken, rows.Err()
}

// Primary returns a node's primary assignment for the given IP version
// (empty string selects any primary), or nil if none exists.
func (r *IPAssignmentRepository) Primary(ctx context.Context, nodeID, ipVersion string) (*models.IPAssignment, error) {
	query := `SELECT id, node_id, ip_address, ip_version, is_primary, pool_id, ip_group_id
		FROM ip_assignments WHERE node_id = ? AND is_primary = 1`
	args := []any{nodeID}
	if ipVersion != "" {
		query += ` AND ip_version = ?`
		args = append(args, ipVersion)
	}
	query += ` LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, args...)
	a := &models.IPAssignment{}
	err := row.Scan(&a.ID, &a.NodeID, &a.IPAddress, &a.IPVersion, &a.IsPrimary, &a.PoolID, &a.IPGroupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan primary assignment: %w", err)
	}
	return a, nil
}

// ListByNode returns every assignment a node holds, primary and
// secondary, ordered primary-first — used to build the full address
// list for a multi-IP cert.
func (r *IPAssignmentRepository) ListByNode(ctx context.Context, nodeID string) ([]*models.IPAssignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, node_id, ip_address, ip_version, is_primary, pool_id, ip_group_id
		FROM ip_assignments WHERE node_id = ? ORDER BY is_primary DESC`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list node assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.IPAssignment
	for rows.Next() {
		a := &models.IPAssignment{}
		if err := rows.Scan(&a.ID, &a.NodeID, &a.IPAddress, &a.IPVersion, &a.IsPrimary,
			&a.PoolID, &a.IPGroupID); err != nil {
			return nil, fmt.Errorf("scan node assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListWithoutPool returns every legacy assignment that predates the
// pool_id column, for startup backfill.
func (r *IPAssignmentRepository) ListWithoutPool(ctx context.Context) ([]*models.IPAssignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, node_id, ip_address, ip_version, is_primary, pool_id, ip_group_id
		FROM ip_assignments WHERE pool_id IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("list unpooled assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.IPAssignment
	for rows.Next() {
		a := &models.IPAssignment{}
		if err := rows.Scan(&a.ID, &a.NodeID, &a.IPAddress, &a.IPVersion, &a.IsPrimary,
			&a.PoolID, &a.IPGroupID); err != nil {
			return nil, fmt.Errorf("scan unpooled assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetPool backfills the pool_id of an assignment created before the
// column existed.
func (r *IPAssignmentRepository) SetPool(ctx context.Context, assignmentID, poolID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE ip_assignments SET pool_id = ? WHERE id = ?`, poolID, assignmentID)
	if err != nil {
		return fmt.Errorf("backfill assignment pool: %w", err)
	}
	return requireAffected(res, models.ErrPoolNotFound)
}
