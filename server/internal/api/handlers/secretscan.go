package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/apierr"
	"nebulafleet.dev/server/internal/logging"
	"nebulafleet.dev/server/internal/repository"
	"nebulafleet.dev/server/internal/tokenmgr"
)

// SecretScanHandler implements the GitHub secret-scanning partner
// surface: the public pattern document and the HMAC-gated verify/
// revoke callbacks.
type SecretScanHandler struct {
	tokens   *tokenmgr.Manager
	nodes    *repository.NodeRepository
	settings *repository.SettingsRepository
	audit    *repository.SecretScanAuditRepository
	now      Clock
}

func NewSecretScanHandler(tokens *tokenmgr.Manager, nodes *repository.NodeRepository, settings *repository.SettingsRepository, audit *repository.SecretScanAuditRepository, now Clock) *SecretScanHandler {
	return &SecretScanHandler{tokens: tokens, nodes: nodes, settings: settings, audit: audit, now: now}
}

// hmacSignatureHeader carries the hex-encoded HMAC-SHA-256 signature
// over the raw request body, optionally prefixed "sha256=".
const hmacSignatureHeader = "X-Hub-Signature-256"

// WellKnown handles GET /.well-known/secret-scanning.json.
func (h *SecretScanHandler) WellKnown(c *gin.Context) {
	ctx := c.Request.Context()
	prefix := models.DefaultTokenPrefix
	if setting, err := h.settings.GetSystemSetting(ctx, models.SettingTokenPrefix); err == nil {
		prefix = setting.Value
	}
	c.JSON(http.StatusOK, []gin.H{
		{"type": "managed_nebula_client_token", "pattern": prefix + "[a-z0-9]{32}"},
	})
}

func (h *SecretScanHandler) verifyHMAC(c *gin.Context, body []byte) bool {
	secret, err := h.settings.GetSystemSetting(c.Request.Context(), models.SettingGithubWebhookSecret)
	if err != nil || secret.Value == "" {
		return false
	}
	sig := strings.TrimPrefix(c.GetHeader(hmacSignatureHeader), "sha256=")
	return tokenmgr.VerifyHMAC(body, secret.Value, sig)
}

func bindBytes(body []byte, dst any) error {
	return json.Unmarshal(body, dst)
}

// Verify handles POST /v1/github/secret-scanning/verify.
func (h *SecretScanHandler) Verify(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}
	if !h.verifyHMAC(c, body) {
		apierr.Respond(c, models.ErrInvalidHMAC)
		return
	}

	var candidates []tokenmgr.SecretScanningCandidate
	if err := bindBytes(body, &candidates); err != nil {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	settings, err := h.settings.GetGlobalSettings(ctx)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	matches, err := h.tokens.Verify(ctx, candidates, func(nodeID string) (string, string, error) {
		node, err := h.nodes.Get(ctx, nodeID)
		if err != nil {
			return "", "", err
		}
		return node.Name, settings.ServerURL + "/v1/clients/" + node.ID, nil
	})
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

// Revoke handles POST /v1/github/secret-scanning/revoke.
func (h *SecretScanHandler) Revoke(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}
	if !h.verifyHMAC(c, body) {
		apierr.Respond(c, models.ErrInvalidHMAC)
		return
	}

	var candidates []tokenmgr.SecretScanningCandidate
	if err := bindBytes(body, &candidates); err != nil {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	count, err := h.tokens.Revoke(ctx, candidates)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	for _, cand := range candidates {
		audit := &models.SecretScanAudit{
			Action:       "revoke",
			TokenPreview: previewOf(cand.Token),
			GithubURL:    cand.URL,
			IsActive:     false,
			CreatedAt:    h.now(),
		}
		if err := h.audit.Insert(ctx, audit); err != nil {
			logging.Error(ctx, "secret scan audit insert failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"revoked_count": count})
}

func previewOf(tok string) string {
	if len(tok) <= 8 {
		return tok
	}
	return tok[:8] + "..."
}
