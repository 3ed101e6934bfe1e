// Package repository materializes the data model against SQLite with
// raw parameterized SQL. There is no migration engine here: Bootstrap
// issues idempotent CREATE TABLE IF NOT EXISTS statements matching the
// entities, and callers are expected to run it once at startup.
package repository

import (
	"database/sql"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cas (
	id                text PRIMARY KEY,
	name              text NOT NULL,
	pem_cert          text NOT NULL,
	pem_key           text NOT NULL DEFAULT '',
	not_before        datetime NOT NULL,
	not_after         datetime NOT NULL,
	is_active         boolean NOT NULL DEFAULT 0,
	is_previous       boolean NOT NULL DEFAULT 0,
	can_sign          boolean NOT NULL DEFAULT 0,
	include_in_config boolean NOT NULL DEFAULT 1,
	cert_version      text NOT NULL,
	nebula_version    text NOT NULL DEFAULT '',
	created_at        datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ip_pools (
	id          text PRIMARY KEY,
	cidr        text NOT NULL UNIQUE,
	description text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ip_groups (
	id       text PRIMARY KEY,
	pool_id  text NOT NULL REFERENCES ip_pools(id) ON DELETE CASCADE,
	name     text NOT NULL,
	start_ip text NOT NULL,
	end_ip   text NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
	id                      text PRIMARY KEY,
	name                    text NOT NULL UNIQUE,
	is_lighthouse           boolean NOT NULL DEFAULT 0,
	public_ip               text,
	is_blocked              boolean NOT NULL DEFAULT 0,
	owner_user_id           text,
	ip_version              text NOT NULL DEFAULT 'ipv4_only',
	os_type                 text NOT NULL DEFAULT 'docker',
	client_version          text,
	nebula_version          text,
	config_last_changed_at  datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_config_download_at datetime,
	last_version_report_at  datetime,
	created_at              datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tokens (
	id            text PRIMARY KEY,
	node_id       text NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	hash          text NOT NULL UNIQUE,
	preview       text NOT NULL,
	is_active     boolean NOT NULL DEFAULT 1,
	owner_user_id text,
	created_at    datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS host_certs (
	id                     text PRIMARY KEY,
	node_id                text NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	pem                    text NOT NULL,
	not_before             datetime NOT NULL,
	not_after              datetime NOT NULL,
	fingerprint            text,
	issued_for_ip_cidr     text NOT NULL,
	issued_for_groups_hash text NOT NULL,
	issued_by_ca_id        text NOT NULL REFERENCES cas(id),
	cert_version           text NOT NULL,
	revoked                boolean NOT NULL DEFAULT 0,
	revoked_at             datetime,
	created_at             datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ip_assignments (
	id          text PRIMARY KEY,
	node_id     text NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	ip_address  text NOT NULL UNIQUE,
	ip_version  text NOT NULL,
	is_primary  boolean NOT NULL DEFAULT 0,
	pool_id     text REFERENCES ip_pools(id),
	ip_group_id text REFERENCES ip_groups(id)
);

CREATE TABLE IF NOT EXISTS groups (
	id   text PRIMARY KEY,
	name text NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS node_groups (
	node_id  text NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	group_id text NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	PRIMARY KEY (node_id, group_id)
);

CREATE TABLE IF NOT EXISTS firewall_rulesets (
	id   text PRIMARY KEY,
	name text NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS firewall_rules (
	id          text PRIMARY KEY,
	ruleset_id  text NOT NULL REFERENCES firewall_rulesets(id) ON DELETE CASCADE,
	direction   text NOT NULL,
	port        text NOT NULL,
	proto       text NOT NULL,
	host        text,
	cidr        text,
	local_cidr  text,
	ca_name     text,
	ca_sha      text,
	group_names text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS node_rulesets (
	node_id    text NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	ruleset_id text NOT NULL REFERENCES firewall_rulesets(id) ON DELETE CASCADE,
	PRIMARY KEY (node_id, ruleset_id)
);

CREATE TABLE IF NOT EXISTS permissions (
	id       text PRIMARY KEY,
	resource text NOT NULL,
	action   text NOT NULL
);

CREATE TABLE IF NOT EXISTS user_groups (
	id       text PRIMARY KEY,
	name     text NOT NULL UNIQUE,
	is_admin boolean NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS user_group_memberships (
	id            text PRIMARY KEY,
	user_id       text NOT NULL,
	user_group_id text NOT NULL REFERENCES user_groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS client_permissions (
	id            text PRIMARY KEY,
	node_id       text NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	user_group_id text NOT NULL REFERENCES user_groups(id) ON DELETE CASCADE,
	action        text NOT NULL
);

CREATE TABLE IF NOT EXISTS global_settings (
	id                      integer PRIMARY KEY CHECK (id = 1),
	lighthouse_port         integer NOT NULL DEFAULT 4242,
	lighthouse_hosts        text NOT NULL DEFAULT '',
	punchy_enabled          boolean NOT NULL DEFAULT 1,
	default_cidr_pool       text NOT NULL DEFAULT '10.100.0.0/16',
	cert_version            text NOT NULL DEFAULT 'v1',
	nebula_version          text NOT NULL DEFAULT '',
	client_docker_image     text NOT NULL DEFAULT '',
	server_url              text NOT NULL DEFAULT '',
	docker_compose_template text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS system_settings (
	key        text PRIMARY KEY,
	value      text NOT NULL,
	updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_by text
);

CREATE TABLE IF NOT EXISTS enrollment_codes (
	code       text PRIMARY KEY,
	node_id    text NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	expires_at datetime NOT NULL,
	is_used    boolean NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS secret_scanning_audit (
	id             integer PRIMARY KEY AUTOINCREMENT,
	action         text NOT NULL,
	token_preview  text NOT NULL,
	github_url     text NOT NULL DEFAULT '',
	is_active      boolean NOT NULL,
	node_id        text,
	created_at     datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tokens_node_id ON tokens(node_id);
CREATE INDEX IF NOT EXISTS idx_host_certs_node_id ON host_certs(node_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_ip_assignments_node_id ON ip_assignments(node_id);
CREATE INDEX IF NOT EXISTS idx_cas_active_signing ON cas(cert_version, is_active, can_sign);
`

// Bootstrap creates every table the control plane needs if it does not
// already exist. It is safe to call on every startup.
func Bootstrap(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}
