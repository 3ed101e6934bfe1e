package models

// Group is a Nebula firewall group name attached to nodes many-to-many;
// firewall rules reference groups (AND-ed when a rule lists several).
type Group struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// FirewallRule is one inbound or outbound rule compiled into the emitted
// Nebula config's firewall section.
type FirewallRule struct {
	ID        string `db:"id" json:"id"`
	Direction string `db:"direction" json:"direction"` // "inbound" | "outbound"
	Port      string `db:"port" json:"port"`           // numeric or "any"
	Proto     string `db:"proto" json:"proto"`         // "tcp" | "udp" | "icmp" | "any"

	Host      *string `db:"host" json:"host,omitempty"`
	CIDR      *string `db:"cidr" json:"cidr,omitempty"`
	LocalCIDR *string `db:"local_cidr" json:"local_cidr,omitempty"`
	CAName    *string `db:"ca_name" json:"ca_name,omitempty"`
	CASha     *string `db:"ca_sha" json:"ca_sha,omitempty"`

	// GroupNames, when non-empty, are AND-ed together for this rule.
	GroupNames []string `db:"-" json:"groups,omitempty"`
}

// FirewallRuleset bundles rules and attaches to nodes many-to-many.
type FirewallRuleset struct {
	ID    string   `db:"id" json:"id"`
	Name  string   `db:"name" json:"name"`
	Rules []string `db:"-" json:"rule_ids,omitempty"`
}
