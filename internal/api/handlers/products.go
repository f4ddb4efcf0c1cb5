package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/backend"
)

func HandleListProducts(bc *backend.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			products []backend.Product
			err      error
		)
		if query := c.Query("query"); query != "" {
			products, err = bc.SearchProducts(c.Request.Context(), query)
		} else {
			products, err = bc.GetProducts(c.Request.Context())
		}
		if err != nil {
			respondError(c, logger, err)
			return
		}
		if products == nil {
			products = []backend.Product{}
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

func HandleGetProduct(bc *backend.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := bc.GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
