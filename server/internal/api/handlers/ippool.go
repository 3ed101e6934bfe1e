package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/apierr"
	"nebulafleet.dev/server/internal/repository"
	"nebulafleet.dev/server/internal/util"
)

// IPPoolHandler implements the /v1/ip-pools and nested /v1/ip-pools/:id/groups surface.
type IPPoolHandler struct {
	pools       *repository.IPPoolRepository
	groups      *repository.IPGroupRepository
	assignments *repository.IPAssignmentRepository
	newID       IDGenerator
}

func NewIPPoolHandler(pools *repository.IPPoolRepository, groups *repository.IPGroupRepository, assignments *repository.IPAssignmentRepository, newID IDGenerator) *IPPoolHandler {
	return &IPPoolHandler{pools: pools, groups: groups, assignments: assignments, newID: newID}
}

type createPoolRequest struct {
	CIDR        string `json:"cidr"`
	Description string `json:"description"`
}

// Create handles POST /v1/ip-pools.
func (h *IPPoolHandler) Create(c *gin.Context) {
	var req createPoolRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := util.ValidateCIDR(req.CIDR); err != nil {
		apierr.Respond(c, models.ErrInvalidCIDR)
		return
	}
	pool := &models.IPPool{ID: h.newID(), CIDR: req.CIDR, Description: req.Description}
	if err := h.pools.Insert(c.Request.Context(), pool); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, pool)
}

// List handles GET /v1/ip-pools.
func (h *IPPoolHandler) List(c *gin.Context) {
	pools, err := h.pools.List(c.Request.Context())
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, pools)
}

// Get handles GET /v1/ip-pools/:id.
func (h *IPPoolHandler) Get(c *gin.Context) {
	pool, err := h.pools.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

// Delete handles DELETE /v1/ip-pools/:id. Rejects a pool that still
// has assignments via models.ErrPoolHasAssignments, surfaced by the
// repository layer.
func (h *IPPoolHandler) Delete(c *gin.Context) {
	if err := h.pools.Delete(c.Request.Context(), c.Param("id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createIPGroupRequest struct {
	Name    string `json:"name"`
	StartIP string `json:"start_ip"`
	EndIP   string `json:"end_ip"`
}

// CreateGroup handles POST /v1/ip-pools/:id/groups.
func (h *IPPoolHandler) CreateGroup(c *gin.Context) {
	var req createIPGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := util.ValidateIP(req.StartIP); err != nil {
		apierr.Respond(c, models.ErrInvalidIP)
		return
	}
	if err := util.ValidateIP(req.EndIP); err != nil {
		apierr.Respond(c, models.ErrInvalidIP)
		return
	}
	group := &models.IPGroup{
		ID: h.newID(), PoolID: c.Param("id"), Name: req.Name,
		StartIP: req.StartIP, EndIP: req.EndIP,
	}
	if err := h.groups.Insert(c.Request.Context(), group); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

// ListGroups handles GET /v1/ip-pools/:id/groups.
func (h *IPPoolHandler) ListGroups(c *gin.Context) {
	groups, err := h.groups.ListByPool(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}
