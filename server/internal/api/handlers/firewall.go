package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/apierr"
	"nebulafleet.dev/server/internal/repository"
)

// FirewallHandler implements the /v1/firewall-rulesets surface, plus
// the rules nested under each ruleset.
type FirewallHandler struct {
	rulesets *repository.FirewallRulesetRepository
	rules    *repository.FirewallRuleRepository
	newID    IDGenerator
}

func NewFirewallHandler(rulesets *repository.FirewallRulesetRepository, rules *repository.FirewallRuleRepository, newID IDGenerator) *FirewallHandler {
	return &FirewallHandler{rulesets: rulesets, rules: rules, newID: newID}
}

type createRulesetRequest struct {
	Name string `json:"name"`
}

// CreateRuleset handles POST /v1/firewall-rulesets.
func (h *FirewallHandler) CreateRuleset(c *gin.Context) {
	var req createRulesetRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == "" {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}
	ruleset := &models.FirewallRuleset{ID: h.newID(), Name: req.Name}
	if err := h.rulesets.Insert(c.Request.Context(), ruleset); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, ruleset)
}

// ListRulesets handles GET /v1/firewall-rulesets.
func (h *FirewallHandler) ListRulesets(c *gin.Context) {
	rulesets, err := h.rulesets.List(c.Request.Context())
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rulesets)
}

// GetRuleset handles GET /v1/firewall-rulesets/:id.
func (h *FirewallHandler) GetRuleset(c *gin.Context) {
	ruleset, err := h.rulesets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, ruleset)
}

// DeleteRuleset handles DELETE /v1/firewall-rulesets/:id.
func (h *FirewallHandler) DeleteRuleset(c *gin.Context) {
	if err := h.rulesets.Delete(c.Request.Context(), c.Param("id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AttachRuleset handles POST /v1/clients/:id/firewall-rulesets/:ruleset_id.
func (h *FirewallHandler) AttachRuleset(c *gin.Context) {
	if err := h.rulesets.Attach(c.Request.Context(), c.Param("id"), c.Param("ruleset_id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DetachRuleset handles DELETE /v1/clients/:id/firewall-rulesets/:ruleset_id.
func (h *FirewallHandler) DetachRuleset(c *gin.Context) {
	if err := h.rulesets.Detach(c.Request.Context(), c.Param("id"), c.Param("ruleset_id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRulesetsForClient handles GET /v1/clients/:id/firewall-rulesets.
func (h *FirewallHandler) ListRulesetsForClient(c *gin.Context) {
	rulesets, err := h.rulesets.ListForNode(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rulesets)
}

type createRuleRequest struct {
	Direction  string   `json:"direction"`
	Port       string   `json:"port"`
	Proto      string   `json:"proto"`
	Host       string   `json:"host"`
	CIDR       string   `json:"cidr"`
	LocalCIDR  string   `json:"local_cidr"`
	CAName     string   `json:"ca_name"`
	CASha      string   `json:"ca_sha"`
	GroupNames []string `json:"groups"`
}

// CreateRule handles POST /v1/firewall-rulesets/:id/rules.
func (h *FirewallHandler) CreateRule(c *gin.Context) {
	var req createRuleRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Direction == "" || req.Port == "" || req.Proto == "" {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}
	rule := &models.FirewallRule{
		ID: h.newID(), Direction: req.Direction, Port: req.Port, Proto: req.Proto,
		Host: strPtr(req.Host), CIDR: strPtr(req.CIDR), LocalCIDR: strPtr(req.LocalCIDR),
		CAName: strPtr(req.CAName), CASha: strPtr(req.CASha), GroupNames: req.GroupNames,
	}
	if err := h.rules.Insert(c.Request.Context(), c.Param("id"), rule); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// ListRules handles GET /v1/firewall-rulesets/:id/rules.
func (h *FirewallHandler) ListRules(c *gin.Context) {
	rules, err := h.rules.ListByRuleset(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// DeleteRule handles DELETE /v1/firewall-rulesets/:id/rules/:rule_id.
func (h *FirewallHandler) DeleteRule(c *gin.Context) {
	if err := h.rules.Delete(c.Request.Context(), c.Param("rule_id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
