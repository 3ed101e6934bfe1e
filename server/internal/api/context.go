// Package api provides the REST API implementation for the NebulaFleet
// control plane.
//
// This package implements the HTTP layer including routing, middleware, and handlers
// for all API endpoints. It uses Gin for HTTP handling and integrates with the
// authentication, database, and service layers.
package api

import (
	"github.com/gin-gonic/gin"
)

// Context keys for storing authenticated request information.
const (
	// ContextKeyNodeID stores the authenticated node ID (set by
	// RequireNodeToken for the client/config hot path).
	ContextKeyNodeID = "node_id"

	// ContextKeyUserID stores the authenticated admin-surface user ID.
	ContextKeyUserID = "user_id"

	// ContextKeyRequestID stores the unique request ID for tracing.
	ContextKeyRequestID = "request_id"

	// ContextKeyIsAdmin indicates membership in an admin UserGroup.
	ContextKeyIsAdmin = "is_admin"
)

// GetNodeID retrieves the authenticated node ID from the request context.
// Returns an empty string if not authenticated or node ID not set.
func GetNodeID(c *gin.Context) string {
	if val, exists := c.Get(ContextKeyNodeID); exists {
		if nodeID, ok := val.(string); ok {
			return nodeID
		}
	}
	return ""
}

// GetUserID retrieves the authenticated admin-surface user ID from the
// request context. Returns an empty string if not authenticated.
func GetUserID(c *gin.Context) string {
	if val, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := val.(string); ok {
			return userID
		}
	}
	return ""
}

// GetRequestID retrieves the unique request ID from the request context.
// Returns an empty string if request ID not set.
func GetRequestID(c *gin.Context) string {
	if val, exists := c.Get(ContextKeyRequestID); exists {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// IsAdmin checks if the authenticated caller belongs to an admin
// UserGroup. Returns false if not authenticated or not an admin.
func IsAdmin(c *gin.Context) bool {
	if val, exists := c.Get(ContextKeyIsAdmin); exists {
		if isAdmin, ok := val.(bool); ok {
			return isAdmin
		}
	}
	return false
}

// SetNodeID sets the authenticated node ID in the request context.
func SetNodeID(c *gin.Context, nodeID string) {
	c.Set(ContextKeyNodeID, nodeID)
}

// SetUserID sets the authenticated user ID in the request context.
func SetUserID(c *gin.Context, userID string) {
	c.Set(ContextKeyUserID, userID)
}

// SetRequestID sets the unique request ID in the request context.
func SetRequestID(c *gin.Context, requestID string) {
	c.Set(ContextKeyRequestID, requestID)
}

// SetIsAdmin sets whether the authenticated caller is an admin.
func SetIsAdmin(c *gin.Context, isAdmin bool) {
	c.Set(ContextKeyIsAdmin, isAdmin)
}
