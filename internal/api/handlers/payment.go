package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/api/middleware"
	"github.com/ripenred/checkout-api/internal/domain"
	"github.com/ripenred/checkout-api/internal/service"
)

// InitiatePaymentRequest is the checkout submission: the payment method
// plus the shipping address, either selected from the saved list or
// provided inline, and the guest contact block when unauthenticated
type InitiatePaymentRequest struct {
	PaymentMethod        string           `json:"paymentMethod"`
	SelectedAddressIndex *int             `json:"selectedAddressIndex,omitempty"`
	Address              *domain.Address  `json:"address,omitempty"`
	GuestInfo            *domain.UserInfo `json:"guestInfo,omitempty"`
}

// RedirectReturnRequest is the callback payload after a redirect
// provider sends the customer back
type RedirectReturnRequest struct {
	Success       domain.FlexBool `json:"success"`
	TransactionID string          `json:"transactionId"`
}

// HandleInitiatePayment resolves the cart, builds and validates the
// order, submits it and returns the launch the storefront must perform
func HandleInitiatePayment(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		var req InitiatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		items, err := services.Cart.Resolve(c.Request.Context(), sess)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		order, err := services.Order.Build(sess, items, service.BuildInput{
			PaymentMethod:        domain.PaymentMethod(req.PaymentMethod),
			SelectedAddressIndex: req.SelectedAddressIndex,
			FormAddress:          req.Address,
			GuestInfo:            req.GuestInfo,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		launch, err := services.Payment.Initiate(c.Request.Context(), sess, order)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, launch)
	}
}

// HandleVerifyPayment settles a modal provider's success callback
func HandleVerifyPayment(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		var cb service.ModalCallback
		if err := c.ShouldBindJSON(&cb); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		orderID, err := services.Payment.VerifyModal(c.Request.Context(), sess, cb)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "orderId": orderID})
	}
}

// HandlePaymentReturn completes a redirect provider flow using the
// resume state stored before navigation
func HandlePaymentReturn(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		var req RedirectReturnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		orderID, err := services.Payment.CompleteRedirect(c.Request.Context(), sess, req.Success.Bool(), req.TransactionID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "orderId": orderID})
	}
}
