// Package handlers implements the HTTP request handlers for the
// NebulaFleet control plane's REST API.
package handlers

import (
	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/apierr"
)

// bindJSON decodes the request body into dst, responding with a 400
// ValidationError and returning false on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		apierr.Respond(c, models.ErrInvalidRequest)
		return false
	}
	return true
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
