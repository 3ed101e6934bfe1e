package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/apierr"
	"nebulafleet.dev/server/internal/repository"
)

// RBACHandler implements the /v1/user-groups, /v1/permissions and
// /v1/clients/:id/permissions surface.
type RBACHandler struct {
	userGroups  *repository.UserGroupRepository
	memberships *repository.UserGroupMembershipRepository
	permissions *repository.PermissionRepository
	clientPerms *repository.ClientPermissionRepository
	newID       IDGenerator
}

func NewRBACHandler(
	userGroups *repository.UserGroupRepository,
	memberships *repository.UserGroupMembershipRepository,
	permissions *repository.PermissionRepository,
	clientPerms *repository.ClientPermissionRepository,
	newID IDGenerator,
) *RBACHandler {
	return &RBACHandler{
		userGroups: userGroups, memberships: memberships,
		permissions: permissions, clientPerms: clientPerms, newID: newID,
	}
}

type createUserGroupRequest struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// CreateUserGroup handles POST /v1/user-groups.
func (h *RBACHandler) CreateUserGroup(c *gin.Context) {
	var req createUserGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == "" {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}
	group := &models.UserGroup{ID: h.newID(), Name: req.Name, IsAdmin: req.IsAdmin}
	if err := h.userGroups.Insert(c.Request.Context(), group); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

// ListUserGroups handles GET /v1/user-groups.
func (h *RBACHandler) ListUserGroups(c *gin.Context) {
	groups, err := h.userGroups.List(c.Request.Context())
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GetUserGroup handles GET /v1/user-groups/:id.
func (h *RBACHandler) GetUserGroup(c *gin.Context) {
	group, err := h.userGroups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// DeleteUserGroup handles DELETE /v1/user-groups/:id. Rejects removal
// of the last admin group via models.ErrLastAdmin, surfaced by the
// repository layer.
func (h *RBACHandler) DeleteUserGroup(c *gin.Context) {
	if err := h.userGroups.Delete(c.Request.Context(), c.Param("id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addMembershipRequest struct {
	UserID string `json:"user_id"`
}

// AddMember handles POST /v1/user-groups/:id/members.
func (h *RBACHandler) AddMember(c *gin.Context) {
	var req addMembershipRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID == "" {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}
	membership := &models.UserGroupMembership{ID: h.newID(), UserID: req.UserID, UserGroupID: c.Param("id")}
	if err := h.memberships.Insert(c.Request.Context(), membership); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, membership)
}

// RemoveMember handles DELETE /v1/user-groups/:id/members/:user_id.
// Rejects removing the last member of the last admin group via
// models.ErrLastAdmin, surfaced by the repository layer.
func (h *RBACHandler) RemoveMember(c *gin.Context) {
	if err := h.memberships.Delete(c.Request.Context(), c.Param("user_id"), c.Param("id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListUserGroupsForUser handles GET /v1/users/:user_id/user-groups.
func (h *RBACHandler) ListUserGroupsForUser(c *gin.Context) {
	groups, err := h.userGroups.ForUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

type createPermissionRequest struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// CreatePermission handles POST /v1/permissions.
func (h *RBACHandler) CreatePermission(c *gin.Context) {
	var req createPermissionRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Resource == "" || req.Action == "" {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}
	perm := &models.Permission{ID: h.newID(), Resource: req.Resource, Action: req.Action}
	if err := h.permissions.Insert(c.Request.Context(), perm); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, perm)
}

// ListPermissions handles GET /v1/permissions.
func (h *RBACHandler) ListPermissions(c *gin.Context) {
	perms, err := h.permissions.List(c.Request.Context())
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, perms)
}

// GroupPermissions and UserGroupPermissions both expose the same
// permission catalog under two route paths; the source this system
// was modeled on declared list_group_permissions/grant_group_permission
// twice, once under /groups/{id}/permissions and once under
// /user-groups/{id}/permissions, so both are kept as disjoint handlers
// rather than merged into one.

// GroupPermissions handles GET /v1/groups/:id/permissions.
func (h *RBACHandler) GroupPermissions(c *gin.Context) {
	h.ListPermissions(c)
}

// UserGroupPermissions handles GET /v1/user-groups/:id/permissions.
func (h *RBACHandler) UserGroupPermissions(c *gin.Context) {
	h.ListPermissions(c)
}

type grantClientPermissionRequest struct {
	UserGroupID string                        `json:"user_group_id"`
	Action      models.ClientPermissionAction `json:"action"`
}

// GrantClientPermission handles POST /v1/clients/:id/permissions, the
// fine-grained per-node grant independent of node ownership.
func (h *RBACHandler) GrantClientPermission(c *gin.Context) {
	var req grantClientPermissionRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserGroupID == "" || req.Action == "" {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}
	perm := &models.ClientPermission{
		ID: h.newID(), NodeID: c.Param("id"),
		UserGroupID: req.UserGroupID, Action: req.Action,
	}
	if err := h.clientPerms.Insert(c.Request.Context(), perm); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, perm)
}

// RevokeClientPermission handles DELETE /v1/clients/:id/permissions/:perm_id.
func (h *RBACHandler) RevokeClientPermission(c *gin.Context) {
	if err := h.clientPerms.Delete(c.Request.Context(), c.Param("perm_id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
