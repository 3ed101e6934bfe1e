package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/api"
	"nebulafleet.dev/server/internal/api/middleware"
	"nebulafleet.dev/server/internal/apierr"
	"nebulafleet.dev/server/internal/configbuild"
	"nebulafleet.dev/server/internal/ratelimit"
	"nebulafleet.dev/server/internal/repository"
	"nebulafleet.dev/server/internal/tokenmgr"
)

// ClientConfigHandler serves the node agent's hot-path config fetch.
type ClientConfigHandler struct {
	tokens  *tokenmgr.Manager
	nodes   *repository.NodeRepository
	builder *configbuild.Builder
	limiter *ratelimit.Limiter
}

func NewClientConfigHandler(tokens *tokenmgr.Manager, nodes *repository.NodeRepository, builder *configbuild.Builder, limiter *ratelimit.Limiter) *ClientConfigHandler {
	return &ClientConfigHandler{tokens: tokens, nodes: nodes, builder: builder, limiter: limiter}
}

type clientConfigRequest struct {
	Token         string         `json:"token"`
	PublicKeyPEM  string         `json:"public_key_pem"`
	ClientVersion string         `json:"client_version"`
	NebulaVersion string         `json:"nebula_version"`
	OSType        models.OSType  `json:"os_type"`
}

type clientConfigResponse struct {
	Config        string `json:"config"`
	ClientCertPEM string `json:"client_cert_pem"`
	CAChainPEMs   []string `json:"ca_chain_pems"`
	CertNotBefore string `json:"cert_not_before"`
	CertNotAfter  string `json:"cert_not_after"`
	Lighthouse    bool   `json:"lighthouse"`
	KeyPath       string `json:"key_path"`
}

// Fetch handles POST /v1/client/config. The bearer token travels as a
// body field rather than a header, so middleware.RequireNodeToken is
// invoked here with a closure that binds the body once and extracts
// req.Token, leaving req populated for the rest of the handler.
func (h *ClientConfigHandler) Fetch(c *gin.Context) {
	var req clientConfigRequest
	extractToken := func(c *gin.Context) string {
		if err := c.ShouldBindJSON(&req); err != nil {
			return ""
		}
		return req.Token
	}
	middleware.RequireNodeToken(h.tokens, extractToken)(c)
	if c.IsAborted() {
		return
	}

	nodeID := api.GetNodeID(c)
	if h.limiter != nil {
		key := ratelimit.BuildKey(nodeID, ratelimit.LimitTypeConfigFetch)
		if allowed, retryAfter := h.limiter.Allow(key, ratelimit.LimitTypeConfigFetch); !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Detail: "rate limit exceeded for config fetches"})
			c.Abort()
			return
		}
	}

	node, err := h.nodes.Get(c.Request.Context(), nodeID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	if node.IsBlocked {
		apierr.Respond(c, models.ErrNodeBlocked)
		return
	}

	result, err := h.builder.Build(c.Request.Context(), node, configbuild.Request{
		PublicKeyPEM:  req.PublicKeyPEM,
		ClientVersion: req.ClientVersion,
		NebulaVersion: req.NebulaVersion,
		OSType:        req.OSType,
	})
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, clientConfigResponse{
		Config:        result.Config,
		ClientCertPEM: result.ClientCertPEM,
		CAChainPEMs:   result.CAChainPEMs,
		CertNotBefore: result.CertNotBefore.Format(rfc3339),
		CertNotAfter:  result.CertNotAfter.Format(rfc3339),
		Lighthouse:    result.Lighthouse,
		KeyPath:       result.KeyPath,
	})
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"
