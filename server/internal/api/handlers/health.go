package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/apierr"
	"nebulafleet.dev/server/internal/repository"
)

// HealthHandler serves the liveness and version endpoints.
type HealthHandler struct {
	settings *repository.SettingsRepository
	nebulaVersion string
}

func NewHealthHandler(settings *repository.SettingsRepository, nebulaVersion string) *HealthHandler {
	return &HealthHandler{settings: settings, nebulaVersion: nebulaVersion}
}

// Healthz handles GET /v1/healthz.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}

// Version handles GET /v1/version.
func (h *HealthHandler) Version(c *gin.Context) {
	settings, err := h.settings.GetGlobalSettings(c.Request.Context())
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VersionResponse{
		ManagedNebulaVersion: settings.NebulaVersion,
		NebulaVersion:        h.nebulaVersion,
	})
}
