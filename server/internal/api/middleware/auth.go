package middleware

import (
	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/api"
	"nebulafleet.dev/server/internal/apierr"
	"nebulafleet.dev/server/internal/tokenmgr"
)

// HeaderNodeToken is the header name for node bearer-token authentication.
const HeaderNodeToken = "Authorization"

// RequireNodeToken authenticates the bearer token carried in the request
// body (the /v1/client/config hot path takes the token as a JSON field,
// not a header) and sets the node ID in context.
//
// extractToken pulls the candidate token value out of the request; the
// handler passes a closure reading its own decoded body since the token
// lives in different places in the body across endpoints.
func RequireNodeToken(tokens *tokenmgr.Manager, extractToken func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value := extractToken(c)
		if value == "" {
			apierr.Abort(c, models.ErrUnauthorized)
			return
		}

		tok, err := tokens.Authenticate(c.Request.Context(), value)
		if err != nil {
			apierr.Abort(c, err)
			return
		}

		api.SetNodeID(c, tok.NodeID)
		c.Next()
	}
}

// RequireAdmin gates admin-only endpoints; it runs after a session or
// API-key based user-auth middleware (RBAC administrative surfaces
// live in an external collaborator system) has already populated
// ContextKeyIsAdmin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !api.IsAdmin(c) {
			apierr.Abort(c, models.ErrNotAdmin)
			return
		}
		c.Next()
	}
}
