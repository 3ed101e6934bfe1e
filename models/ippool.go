package models

// IPPool is a CIDR block from which overlay IPs are allocated. The CIDR
// must have zero host bits (it is the network address) and cannot be
// changed while any IPAssignment references the pool.
type IPPool struct {
	ID          string `db:"id" json:"id"`
	CIDR        string `db:"cidr" json:"cidr"`
	Description string `db:"description" json:"description,omitempty"`
}

// IPGroup is a named sub-range within a pool. [StartIP, EndIP] must lie
// inside the pool's CIDR and StartIP must not exceed EndIP.
type IPGroup struct {
	ID      string `db:"id" json:"id"`
	PoolID  string `db:"pool_id" json:"pool_id"`
	Name    string `db:"name" json:"name"`
	StartIP string `db:"start_ip" json:"start_ip"`
	EndIP   string `db:"end_ip" json:"end_ip"`
}

// IPAssignment binds a single overlay IP to a Node. Exactly one
// assignment per node is IsPrimary per IPVersion in use; the primary
// IPv4 assignment is what appears in single-IP (v1) certs.
type IPAssignment struct {
	ID        string  `db:"id" json:"id"`
	NodeID    string  `db:"node_id" json:"node_id"`
	IPAddress string  `db:"ip_address" json:"ip_address"`
	IPVersion string  `db:"ip_version" json:"ip_version"` // "ipv4" or "ipv6"
	IsPrimary bool    `db:"is_primary" json:"is_primary"`
	PoolID    *string `db:"pool_id" json:"pool_id,omitempty"`
	IPGroupID *string `db:"ip_group_id" json:"ip_group_id,omitempty"`
}
