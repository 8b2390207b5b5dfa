package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/models"
)

const (
	ctxUserID   = "user_id"
	ctxUserRole = "user_role"

	headerUserID    = "X-User-ID"
	headerUserRole  = "X-User-Role"
	headerRequestID = "X-Request-ID"
)

// Identity extracts the authenticated user from gateway-provided headers.
// Authentication happens upstream; this service trusts the gateway.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader(headerUserID); userID != "" {
			c.Set(ctxUserID, userID)
			role := c.GetHeader(headerUserRole)
			if role == "" {
				role = string(models.RoleConsumer)
			}
			c.Set(ctxUserRole, role)
		}
		c.Next()
	}
}

// RequireUser aborts with 401 when no identity was established.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxUserID); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Message: "authentication required",
			})
			return
		}
		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller holds one of the roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := models.Role(c.GetString(ctxUserRole))
		for _, role := range roles {
			if current == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, Response{
			Success: false,
			Message: "insufficient permissions",
		})
	}
}

// RequestID propagates or generates a request id for correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = models.NewID("req")
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set(headerRequestID, requestID)
		c.Next()
	}
}

// AccessLog writes one structured log line per request.
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
