package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/ratelimit"
)

// AdvancedRateLimitMiddleware provides enhanced rate limiting with Retry-After headers
// and different limit types.
type AdvancedRateLimitMiddleware struct {
	limiter *ratelimit.Limiter
}

// NewAdvancedRateLimitMiddleware creates a new advanced rate limit middleware.
func NewAdvancedRateLimitMiddleware(config ratelimit.Config) *AdvancedRateLimitMiddleware {
	return &AdvancedRateLimitMiddleware{
		limiter: ratelimit.NewLimiter(config),
	}
}

// RateLimitRequest applies rate limiting for general authenticated requests.
// This should be used after authentication middleware on node endpoints.
func (m *AdvancedRateLimitMiddleware) RateLimitRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get node ID from authenticated context
		nodeID, exists := c.Get("node_id")
		if !exists {
			// No node ID - allow request but this shouldn't happen after auth
			c.Next()
			return
		}

		identifier := nodeID.(string)
		key := ratelimit.BuildKey(identifier, ratelimit.LimitTypeRequest)

		allowed, retryAfter := m.limiter.Allow(key, ratelimit.LimitTypeRequest)
		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Detail: "rate limit exceeded for requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimitConfigFetch applies rate limiting for client config polling.
// This should be used on the client/config endpoint after node auth.
func (m *AdvancedRateLimitMiddleware) RateLimitConfigFetch() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get node ID from authenticated context
		nodeID, exists := c.Get("node_id")
		if !exists {
			// No node ID - allow request but this shouldn't happen after auth
			c.Next()
			return
		}

		identifier := nodeID.(string)
		key := ratelimit.BuildKey(identifier, ratelimit.LimitTypeConfigFetch)

		allowed, retryAfter := m.limiter.Allow(key, ratelimit.LimitTypeConfigFetch)
		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Detail: "rate limit exceeded for config fetches"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimitHealthCheck applies rate limiting for unauthenticated health check requests.
// This should be used on public health endpoints.
func (m *AdvancedRateLimitMiddleware) RateLimitHealthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		key := ratelimit.BuildKey(ip, ratelimit.LimitTypeHealthCheck)

		allowed, retryAfter := m.limiter.Allow(key, ratelimit.LimitTypeHealthCheck)
		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Detail: "rate limit exceeded for health checks"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimitAuthFailure applies rate limiting for authentication failures.
// This should be called manually in auth middleware when authentication fails.
func (m *AdvancedRateLimitMiddleware) RateLimitAuthFailure(c *gin.Context) (allowed bool, retryAfter int) {
	ip := c.ClientIP()
	key := ratelimit.BuildKey(ip, ratelimit.LimitTypeAuthFailure)

	return m.limiter.Allow(key, ratelimit.LimitTypeAuthFailure)
}

// Stop gracefully stops the rate limiter.
func (m *AdvancedRateLimitMiddleware) Stop() {
	m.limiter.Stop()
}
