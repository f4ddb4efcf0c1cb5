package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/repository"
)

const supportKeyContextKey = "support_key"

// SupportAuthMiddleware authenticates support tooling via an API key in
// the Authorization header (Bearer) or X-API-Key
func SupportAuthMiddleware(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			c.Abort()
			return
		}

		supportKey, err := repos.SupportKey.GetByKey(c.Request.Context(), key)
		if err != nil {
			logger.Warn("Support key auth failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}

		c.Set(supportKeyContextKey, supportKey)
		c.Next()
	}
}
