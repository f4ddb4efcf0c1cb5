package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/domain"
	"github.com/ripenred/checkout-api/internal/repository"
)

// HandleListEvents returns the audit trail for an order or payment so
// support can reconstruct what a customer's checkout actually did
func HandleListEvents(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Query("orderId")
		paymentID := c.Query("paymentId")
		if orderID == "" && paymentID == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "orderId or paymentId is required"})
			return
		}

		var events []domain.CheckoutEvent
		var err error
		if orderID != "" {
			events, err = repos.Event.ListByOrderID(c.Request.Context(), orderID)
		} else {
			events, err = repos.Event.ListByPaymentID(c.Request.Context(), paymentID)
		}
		if err != nil {
			logger.Error("Failed to list checkout events", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if events == nil {
			events = []domain.CheckoutEvent{}
		}

		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}
