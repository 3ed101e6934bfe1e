package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"nebulafleet.dev/models"
)

// FirewallRulesetRepository persists named bundles of firewall rules and
// their many-to-many attachment to nodes.
type FirewallRulesetRepository struct {
	db *sql.DB
}

func NewFirewallRulesetRepository(db *sql.DB) *FirewallRulesetRepository {
	return &FirewallRulesetRepository{db: db}
}

func (r *FirewallRulesetRepository) Insert(ctx context.Context, s *models.FirewallRuleset) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO firewall_rulesets (id, name) VALUES (?, ?)`, s.ID, s.Name)
	if err != nil {
		return fmt.Errorf("insert firewall ruleset: %w", err)
	}
	return nil
}

func (r *FirewallRulesetRepository) Get(ctx context.Context, id string) (*models.FirewallRuleset, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name FROM firewall_rulesets WHERE id = ?`, id)
	s := &models.FirewallRuleset{}
	err := row.Scan(&s.ID, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan firewall ruleset: %w", err)
	}
	return s, nil
}

func (r *FirewallRulesetRepository) List(ctx context.Context) ([]*models.FirewallRuleset, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM firewall_rulesets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list firewall rulesets: %w", err)
	}
	defer rows.Close()

	var out []*models.FirewallRuleset
	for rows.Next() {
		s := &models.FirewallRuleset{}
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan firewall ruleset: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *FirewallRulesetRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM firewall_rulesets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete firewall ruleset: %w", err)
	}
	return requireAffected(res, models.ErrNotFound)
}

// ListForNode returns every ruleset attached to a node through its
// node_rulesets join rows.
func (r *FirewallRulesetRepository) ListForNode(ctx context.Context, nodeID string) ([]*models.FirewallRuleset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name FROM firewall_rulesets s
		JOIN node_rulesets nr ON nr.ruleset_id = s.id
		WHERE nr.node_id = ?
		ORDER BY s.name`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list node rulesets: %w", err)
	}
	defer rows.Close()

	var out []*models.FirewallRuleset
	for rows.Next() {
		s := &models.FirewallRuleset{}
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan node ruleset: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *FirewallRulesetRepository) Attach(ctx context.Context, nodeID, rulesetID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO node_rulesets (node_id, ruleset_id) VALUES (?, ?)`, nodeID, rulesetID)
	if err != nil {
		return fmt.Errorf("attach node to ruleset: %w", err)
	}
	return nil
}

func (r *FirewallRulesetRepository) Detach(ctx context.Context, nodeID, rulesetID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM node_rulesets WHERE node_id = ? AND ruleset_id = ?`, nodeID, rulesetID)
	if err != nil {
		return fmt.Errorf("detach node from ruleset: %w", err)
	}
	return nil
}

// FirewallRuleRepository persists individual rule rows within a ruleset.
type FirewallRuleRepository struct {
	db *sql.DB
}

func NewFirewallRuleRepository(db *sql.DB) *FirewallRuleRepository {
	return &FirewallRuleRepository{db: db}
}

func (r *FirewallRuleRepository) Insert(ctx context.Context, rulesetID string, rule *models.FirewallRule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO firewall_rules (id, ruleset_id, direction, port, proto, host, cidr,
			local_cidr, ca_name, ca_sha, group_names)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rulesetID, rule.Direction, rule.Port, rule.Proto, rule.Host, rule.CIDR,
		rule.LocalCIDR, rule.CAName, rule.CASha, strings.Join(rule.GroupNames, ","))
	if err != nil {
		return fmt.Errorf("insert firewall rule: %w", err)
	}
	return nil
}

// ListByRuleset returns every rule belonging to rulesetID, in insertion
// order, with GroupNames split back out of the comma-joined column.
func (r *FirewallRuleRepository) ListByRuleset(ctx context.Context, rulesetID string) ([]*models.FirewallRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, direction, port, proto, host, cidr, local_cidr, ca_name, ca_sha, group_names
		FROM firewall_rules WHERE ruleset_id = ? ORDER BY rowid`, rulesetID)
	if err != nil {
		return nil, fmt.Errorf("list firewall rules: %w", err)
	}
	defer rows.Close()

	var out []*models.FirewallRule
	for rows.Next() {
		rule := &models.FirewallRule{}
		var groupNames string
		if err := rows.Scan(&rule.ID, &rule.Direction, &rule.Port, &rule.Proto, &rule.Host,
			&rule.CIDR, &rule.LocalCIDR, &rule.CAName, &rule.CASha, &groupNames); err != nil {
			return nil, fmt.Errorf("scan firewall rule: %w", err)
		}
		if groupNames != "" {
			rule.GroupNames = strings.Split(groupNames, ",")
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *FirewallRuleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM firewall_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete firewall rule: %w", err)
	}
	return requireAffected(res, models.ErrNotFound)
}
