package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/apierr"
	"nebulafleet.dev/server/internal/configbuild"
	"nebulafleet.dev/server/internal/ipalloc"
	"nebulafleet.dev/server/internal/repository"
	"nebulafleet.dev/server/internal/tokenmgr"
)

// IDGenerator returns a fresh unique identifier for new rows.
type IDGenerator func() string

// Clock returns the current time; overridable in tests.
type Clock func() time.Time

// ClientHandler implements the /v1/clients CRUD surface: node
// lifecycle, the admin-facing config/docker-compose views, and token
// reissue.
type ClientHandler struct {
	nodes    *repository.NodeRepository
	ipPools  *repository.IPPoolRepository
	settings *repository.SettingsRepository
	ipAlloc  *ipalloc.Allocator
	tokens   *tokenmgr.Manager
	builder  *configbuild.Builder
	newID    IDGenerator
	now      Clock
}

func NewClientHandler(
	nodes *repository.NodeRepository,
	ipPools *repository.IPPoolRepository,
	settings *repository.SettingsRepository,
	ipAlloc *ipalloc.Allocator,
	tokens *tokenmgr.Manager,
	builder *configbuild.Builder,
	newID IDGenerator,
	now Clock,
) *ClientHandler {
	return &ClientHandler{
		nodes: nodes, ipPools: ipPools, settings: settings, ipAlloc: ipAlloc,
		tokens: tokens, builder: builder, newID: newID, now: now,
	}
}

type createClientRequest struct {
	Name         string          `json:"name"`
	IsLighthouse bool            `json:"is_lighthouse"`
	PublicIP     string          `json:"public_ip"`
	IPVersion    models.IPVersion `json:"ip_version"`
	OSType       models.OSType   `json:"os_type"`
	OwnerUserID  string          `json:"owner_user_id"`
	PoolID       string          `json:"pool_id"`
}

type createClientResponse struct {
	Node         *models.Node `json:"node"`
	Token        string       `json:"token"`
	PrimaryIP    string       `json:"primary_ip"`
}

// Create handles POST /v1/clients.
func (h *ClientHandler) Create(c *gin.Context) {
	var req createClientRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == "" {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	ipVersion := req.IPVersion
	if ipVersion == "" {
		ipVersion = models.IPVersionIPv4Only
	}
	osType := req.OSType
	if osType == "" {
		osType = models.OSTypeDocker
	}

	now := h.now()
	node := &models.Node{
		ID:                  h.newID(),
		Name:                req.Name,
		IsLighthouse:        req.IsLighthouse,
		PublicIP:            strPtr(req.PublicIP),
		IPVersion:           ipVersion,
		OSType:              osType,
		OwnerUserID:         strPtr(req.OwnerUserID),
		ConfigLastChangedAt: now,
		CreatedAt:           now,
	}
	if err := h.nodes.Insert(ctx, node); err != nil {
		apierr.Respond(c, err)
		return
	}

	pool, err := h.resolvePool(ctx, req.PoolID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	assignment, err := h.allocateAddresses(ctx, node, pool)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	issued, err := h.tokens.Issue(ctx, node.ID, node.OwnerUserID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, createClientResponse{Node: node, Token: issued.Value, PrimaryIP: assignment.IPAddress})
}

// allocateAddresses assigns every IPAssignment a node's ipVersion
// topology requires, returning the primary address used in single-IP
// (v1) certs. multi_* topologies additionally get a non-primary
// assignment per address family, which configbuild.secondaryIPs folds
// into the v2 multi-IP cert.
func (h *ClientHandler) allocateAddresses(ctx context.Context, node *models.Node, pool *models.IPPool) (*models.IPAssignment, error) {
	switch node.IPVersion {
	case models.IPVersionIPv6Only:
		return h.ipAlloc.AssignPrimary(ctx, node, pool, nil, "ipv6")

	case models.IPVersionDualStack:
		primary, err := h.ipAlloc.AssignPrimary(ctx, node, pool, nil, "ipv4")
		if err != nil {
			return nil, err
		}
		if _, err := h.ipAlloc.AssignPrimary(ctx, node, pool, nil, "ipv6"); err != nil {
			return nil, err
		}
		return primary, nil

	case models.IPVersionMultiIPv4:
		primary, err := h.ipAlloc.AssignPrimary(ctx, node, pool, nil, "ipv4")
		if err != nil {
			return nil, err
		}
		if _, err := h.ipAlloc.AssignSecondary(ctx, node, pool, nil, "ipv4"); err != nil {
			return nil, err
		}
		return primary, nil

	case models.IPVersionMultiIPv6:
		primary, err := h.ipAlloc.AssignPrimary(ctx, node, pool, nil, "ipv6")
		if err != nil {
			return nil, err
		}
		if _, err := h.ipAlloc.AssignSecondary(ctx, node, pool, nil, "ipv6"); err != nil {
			return nil, err
		}
		return primary, nil

	case models.IPVersionMultiBoth:
		primary, err := h.ipAlloc.AssignPrimary(ctx, node, pool, nil, "ipv4")
		if err != nil {
			return nil, err
		}
		if _, err := h.ipAlloc.AssignSecondary(ctx, node, pool, nil, "ipv4"); err != nil {
			return nil, err
		}
		if _, err := h.ipAlloc.AssignPrimary(ctx, node, pool, nil, "ipv6"); err != nil {
			return nil, err
		}
		if _, err := h.ipAlloc.AssignSecondary(ctx, node, pool, nil, "ipv6"); err != nil {
			return nil, err
		}
		return primary, nil

	default: // IPVersionIPv4Only
		return h.ipAlloc.AssignPrimary(ctx, node, pool, nil, "ipv4")
	}
}

func (h *ClientHandler) resolvePool(ctx context.Context, poolID string) (*models.IPPool, error) {
	if poolID != "" {
		return h.ipPools.Get(ctx, poolID)
	}
	settings, err := h.settings.GetGlobalSettings(ctx)
	if err != nil {
		return nil, err
	}
	return h.ipAlloc.EnsureDefaultPool(ctx, settings.DefaultCIDRPool)
}

// List handles GET /v1/clients.
func (h *ClientHandler) List(c *gin.Context) {
	nodes, err := h.nodes.List(c.Request.Context())
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

// Get handles GET /v1/clients/:id.
func (h *ClientHandler) Get(c *gin.Context) {
	node, err := h.nodes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

type updateClientRequest struct {
	IsBlocked *bool `json:"is_blocked"`
}

// Update handles PUT /v1/clients/:id. Currently the only mutable field
// surfaced through this endpoint is block status; attribute edits
// (name, IP topology) require recreating the node since they ripple
// through cert issuance and IP allocation.
func (h *ClientHandler) Update(c *gin.Context) {
	var req updateClientRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IsBlocked == nil {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}
	if err := h.nodes.SetBlocked(c.Request.Context(), c.Param("id"), *req.IsBlocked); err != nil {
		apierr.Respond(c, err)
		return
	}
	node, err := h.nodes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// Delete handles DELETE /v1/clients/:id.
func (h *ClientHandler) Delete(c *gin.Context) {
	if err := h.nodes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reissueTokenResponse struct {
	ID          string    `json:"id"`
	Token       string    `json:"token"`
	ClientID    string    `json:"client_id"`
	CreatedAt   time.Time `json:"created_at"`
	OldTokenID  string    `json:"old_token_id"`
}

// ReissueToken handles POST /v1/clients/:id/token/reissue.
func (h *ClientHandler) ReissueToken(c *gin.Context) {
	nodeID := c.Param("id")
	node, err := h.nodes.Get(c.Request.Context(), nodeID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	var req struct {
		OldTokenID string `json:"old_token_id"`
	}
	_ = c.ShouldBindJSON(&req)

	issued, err := h.tokens.Reissue(c.Request.Context(), req.OldTokenID, nodeID, node.OwnerUserID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, reissueTokenResponse{
		ID: issued.Row.ID, Token: issued.Value, ClientID: nodeID,
		CreatedAt: issued.Row.CreatedAt, OldTokenID: req.OldTokenID,
	})
}

type clientConfigViewResponse struct {
	ConfigYAML    string   `json:"config_yaml"`
	ClientCertPEM string   `json:"client_cert_pem"`
	CAChainPEMs   []string `json:"ca_chain_pems"`
}

// GetConfig handles GET /v1/clients/:id/config, the admin/owner view of
// the same document /v1/client/config hands the node agent.
func (h *ClientHandler) GetConfig(c *gin.Context) {
	ctx := c.Request.Context()
	node, err := h.nodes.Get(ctx, c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	result, err := h.builder.Build(ctx, node, configbuild.Request{
		ClientVersion: derefStr(node.ClientVersion),
		NebulaVersion: derefStr(node.NebulaVersion),
		OSType:        node.OSType,
	})
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, clientConfigViewResponse{
		ConfigYAML:    result.Config,
		ClientCertPEM: result.ClientCertPEM,
		CAChainPEMs:   result.CAChainPEMs,
	})
}

// GetDockerCompose handles GET /v1/clients/:id/docker-compose: the
// operator's stored compose template with placeholders substituted.
func (h *ClientHandler) GetDockerCompose(c *gin.Context) {
	ctx := c.Request.Context()
	node, err := h.nodes.Get(ctx, c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	settings, err := h.settings.GetGlobalSettings(ctx)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	if settings.DockerComposeTemplate == "" {
		apierr.Respond(c, models.ErrNotFound)
		return
	}

	issued, err := h.tokens.Issue(ctx, node.ID, node.OwnerUserID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	rendered := strings.NewReplacer(
		"{{SERVER_URL}}", settings.ServerURL,
		"{{TOKEN}}", issued.Value,
		"{{CLIENT_ID}}", node.ID,
	).Replace(settings.DockerComposeTemplate)

	c.String(http.StatusOK, rendered)
}
