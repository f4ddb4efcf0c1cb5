package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/backend"
	"github.com/ripenred/checkout-api/pkg/errors"
)

// respondError maps service errors onto HTTP status codes. Validation
// problems list every violation; payment failures carry the payment id
// so the customer can quote it to support.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch e := err.(type) {
	case *errors.ErrValidation:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation failed",
			"details": e.Violations,
		})
	case *errors.ErrUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": e.Message})
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": e.Error()})
	case *errors.ErrInvalidStateTransition:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error()})
	case *errors.ErrPaymentFailed:
		body := gin.H{"error": e.Message}
		if e.PaymentID != "" {
			body["paymentId"] = e.PaymentID
		}
		c.JSON(http.StatusPaymentRequired, body)
	case *backend.APIError:
		// Upstream rejections pass through with their message; upstream
		// breakage is our gateway problem, not the client's
		status := e.StatusCode
		if status >= 500 || status < 400 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": e.Message})
	default:
		logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
