package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/apierr"
	"nebulafleet.dev/server/internal/repository"
)

// GroupHandler implements the /v1/groups surface: Nebula firewall
// group names attached to nodes many-to-many.
type GroupHandler struct {
	groups *repository.GroupRepository
	newID  IDGenerator
}

func NewGroupHandler(groups *repository.GroupRepository, newID IDGenerator) *GroupHandler {
	return &GroupHandler{groups: groups, newID: newID}
}

type createGroupRequest struct {
	Name string `json:"name"`
}

// Create handles POST /v1/groups.
func (h *GroupHandler) Create(c *gin.Context) {
	var req createGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == "" {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}
	group := &models.Group{ID: h.newID(), Name: req.Name}
	if err := h.groups.Insert(c.Request.Context(), group); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

// List handles GET /v1/groups.
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// Get handles GET /v1/groups/:id.
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// Delete handles DELETE /v1/groups/:id.
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.groups.Delete(c.Request.Context(), c.Param("id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Attach handles POST /v1/clients/:id/groups/:group_id.
func (h *GroupHandler) Attach(c *gin.Context) {
	if err := h.groups.Attach(c.Request.Context(), c.Param("id"), c.Param("group_id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Detach handles DELETE /v1/clients/:id/groups/:group_id.
func (h *GroupHandler) Detach(c *gin.Context) {
	if err := h.groups.Detach(c.Request.Context(), c.Param("id"), c.Param("group_id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListForClient handles GET /v1/clients/:id/groups.
func (h *GroupHandler) ListForClient(c *gin.Context) {
	names, err := h.groups.ListForNode(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}
