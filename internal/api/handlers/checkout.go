package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/api/middleware"
	"github.com/ripenred/checkout-api/internal/domain"
	"github.com/ripenred/checkout-api/internal/service"
	"github.com/ripenred/checkout-api/internal/session"
)

// CartResponse is the resolved cart with its computed totals
type CartResponse struct {
	Items           []domain.CartLineItem `json:"items"`
	TotalPrice      float64               `json:"totalPrice"`
	DiscountAmount  float64               `json:"discountAmount"`
	ShippingCharges float64               `json:"shippingCharges"`
	FinalTotal      float64               `json:"finalTotal"`
	CouponCode      string                `json:"couponCode,omitempty"`
}

// CartItemRequest is the add/update payload for a cart line
type CartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// CouponRequest carries the user-entered coupon code
type CouponRequest struct {
	Code string `json:"code"`
}

func HandleGetCart(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		items, err := services.Cart.Resolve(c.Request.Context(), sess)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, cartResponse(sess, items))
	}
}

func HandleAddCartItem(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		var req CartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		if err := services.Cart.AddItem(c.Request.Context(), sess, req.ProductID, req.Quantity); err != nil {
			respondError(c, logger, err)
			return
		}

		items, err := services.Cart.Resolve(c.Request.Context(), sess)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(sess, items))
	}
}

func HandleUpdateCartItem(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		var req struct {
			Quantity int `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		if err := services.Cart.UpdateItem(c.Request.Context(), sess, c.Param("productId"), req.Quantity); err != nil {
			respondError(c, logger, err)
			return
		}

		items, err := services.Cart.Resolve(c.Request.Context(), sess)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(sess, items))
	}
}

func HandleRemoveCartItem(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		if err := services.Cart.RemoveItem(c.Request.Context(), sess, c.Param("productId")); err != nil {
			respondError(c, logger, err)
			return
		}

		items, err := services.Cart.Resolve(c.Request.Context(), sess)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(sess, items))
	}
}

func HandleApplyCoupon(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		var req CouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		outcome, err := services.Coupon.Apply(c.Request.Context(), sess, req.Code)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, outcome)
	}
}

func HandleListAddresses(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		addresses, name, err := services.Address.List(c.Request.Context(), sess, c.Query("email"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		if addresses == nil {
			addresses = []domain.Address{}
		}

		c.JSON(http.StatusOK, gin.H{"name": name, "addresses": addresses})
	}
}

func HandleSaveAddress(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		var addr domain.Address
		if err := c.ShouldBindJSON(&addr); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		if err := services.Address.Save(c.Request.Context(), sess, addr); err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"saved": true})
	}
}

func cartResponse(sess *session.Session, items []domain.CartLineItem) CartResponse {
	if items == nil {
		items = []domain.CartLineItem{}
	}
	total := service.ItemTotal(items)
	discount := sess.DiscountAmount
	shipping := service.ShippingCharges(total)

	return CartResponse{
		Items:           items,
		TotalPrice:      total,
		DiscountAmount:  discount,
		ShippingCharges: shipping,
		FinalTotal:      total - discount + shipping,
		CouponCode:      sess.CouponCode,
	}
}
