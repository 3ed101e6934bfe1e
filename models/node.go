package models

import "time"

// IPVersion describes the overlay IP topology a Node requires, which in
// turn drives cert_version negotiation (see internal/configbuild).
type IPVersion string

const (
	IPVersionIPv4Only   IPVersion = "ipv4_only"
	IPVersionIPv6Only   IPVersion = "ipv6_only"
	IPVersionDualStack  IPVersion = "dual_stack"
	IPVersionMultiIPv4  IPVersion = "multi_ipv4"
	IPVersionMultiIPv6  IPVersion = "multi_ipv6"
	IPVersionMultiBoth  IPVersion = "multi_both"
)

// RequiresV2 reports whether this IP topology can only be expressed in a
// v2 (multi-IP) certificate.
func (v IPVersion) RequiresV2() bool {
	switch v {
	case IPVersionIPv6Only, IPVersionDualStack, IPVersionMultiIPv4, IPVersionMultiIPv6, IPVersionMultiBoth:
		return true
	default:
		return false
	}
}

// OSType identifies the node agent's host platform, which selects
// filesystem paths for the emitted config (see internal/configbuild).
type OSType string

const (
	OSTypeDocker  OSType = "docker"
	OSTypeWindows OSType = "windows"
	OSTypeMacOS   OSType = "macos"
)

// Node is a fleet member: a Nebula overlay participant, optionally a
// lighthouse, owned by at most one user.
type Node struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	IsLighthouse bool    `db:"is_lighthouse" json:"is_lighthouse"`
	PublicIP     *string `db:"public_ip" json:"public_ip,omitempty"`
	IsBlocked    bool    `db:"is_blocked" json:"is_blocked"`

	OwnerUserID *string `db:"owner_user_id" json:"owner_user_id,omitempty"`

	IPVersion IPVersion `db:"ip_version" json:"ip_version"`
	OSType    OSType    `db:"os_type" json:"os_type"`

	ClientVersion *string `db:"client_version" json:"client_version,omitempty"`
	NebulaVersion *string `db:"nebula_version" json:"nebula_version,omitempty"`

	ConfigLastChangedAt time.Time  `db:"config_last_changed_at" json:"config_last_changed_at"`
	LastConfigDownloadAt *time.Time `db:"last_config_download_at" json:"last_config_download_at,omitempty"`
	LastVersionReportAt  *time.Time `db:"last_version_report_at" json:"last_version_report_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
