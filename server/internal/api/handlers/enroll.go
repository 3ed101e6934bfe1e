package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/apierr"
	"nebulafleet.dev/server/internal/repository"
	"nebulafleet.dev/server/internal/tokenmgr"
)

// EnrollHandler implements the public mobile/desktop device hand-off
// flow: a short-lived, single-use code minted out-of-band is traded
// for a node bearer token.
type EnrollHandler struct {
	codes *repository.EnrollmentRepository
	nodes *repository.NodeRepository
	tokens *tokenmgr.Manager
	now   Clock
}

func NewEnrollHandler(codes *repository.EnrollmentRepository, nodes *repository.NodeRepository, tokens *tokenmgr.Manager, now Clock) *EnrollHandler {
	return &EnrollHandler{codes: codes, nodes: nodes, tokens: tokens, now: now}
}

type enrollRequest struct {
	Code string `json:"code"`
}

type enrollResponse struct {
	Token    string `json:"token"`
	ClientID string `json:"client_id"`
}

// Enroll handles POST /v1/enroll. A code already consumed, expired, or
// unknown is rejected as ErrNotFound; MarkUsed's own UPDATE ... WHERE
// is_used = 0 guard makes a replay of the same code fail even under a
// race between two concurrent enroll attempts.
func (h *EnrollHandler) Enroll(c *gin.Context) {
	var req enrollRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Code == "" {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	code, err := h.codes.Get(ctx, req.Code)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	if !code.Valid(h.now()) {
		apierr.Respond(c, models.ErrNotFound)
		return
	}
	if err := h.codes.MarkUsed(ctx, req.Code); err != nil {
		apierr.Respond(c, err)
		return
	}

	node, err := h.nodes.Get(ctx, code.NodeID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	issued, err := h.tokens.Issue(ctx, node.ID, node.OwnerUserID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollResponse{Token: issued.Value, ClientID: node.ID})
}
