package models

// ClientPermissionAction enumerates the fine-grained rights a
// UserGroupMembership or direct grant can hold over a Node, beyond plain
// ownership.
type ClientPermissionAction string

const (
	PermissionView                ClientPermissionAction = "view"
	PermissionUpdate              ClientPermissionAction = "update"
	PermissionDownloadConfig      ClientPermissionAction = "download_config"
	PermissionViewToken           ClientPermissionAction = "view_token"
	PermissionDownloadDockerConfig ClientPermissionAction = "download_docker_config"
)

// Permission is a (resource, action) pair grantable to a UserGroup.
type Permission struct {
	ID       string `db:"id" json:"id"`
	Resource string `db:"resource" json:"resource"`
	Action   string `db:"action" json:"action"`
}

// UserGroup is the unit of authorization. An admin group implicitly
// grants every permission; membership in a non-admin group grants only
// the permissions explicitly attached to it.
type UserGroup struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	IsAdmin bool   `db:"is_admin" json:"is_admin"`
}

// UserGroupMembership links a user to a UserGroup.
type UserGroupMembership struct {
	ID          string `db:"id" json:"id"`
	UserID      string `db:"user_id" json:"user_id"`
	UserGroupID string `db:"user_group_id" json:"user_group_id"`
}

// ClientPermission grants one action on one Node to one UserGroup,
// independent of ownership.
type ClientPermission struct {
	ID          string                 `db:"id" json:"id"`
	NodeID      string                 `db:"node_id" json:"node_id"`
	UserGroupID string                 `db:"user_group_id" json:"user_group_id"`
	Action      ClientPermissionAction `db:"action" json:"action"`
}
