package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/backend"
	"github.com/ripenred/checkout-api/internal/config"
	"github.com/ripenred/checkout-api/internal/service"
	"github.com/ripenred/checkout-api/internal/session"
)

const testProductID = "507f1f77bcf86cd799439011"

func newTestRouter(t *testing.T, upstream http.Handler) (*gin.Engine, *session.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Environment: "test",
		Backend: config.BackendConfig{
			RequestTimeout: 2 * time.Second,
			RetryAttempts:  0,
			RetryInterval:  10 * time.Millisecond,
		},
		Checkout: config.CheckoutConfig{
			ServiceablePincodes: []string{"110001"},
			SessionTTL:          time.Hour,
		},
	}

	client := backend.NewClient(cfg.Backend, server.URL, zap.NewNop())
	sessions := session.NewStore(cfg.Checkout.SessionTTL)
	services := service.NewServices(cfg, client, sessions, nil, zap.NewNop())
	return NewRouter(cfg, client, services, sessions, nil, zap.NewNop()), sessions
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, http.NewServeMux())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCartFlowAssignsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/products/"+testProductID, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"_id":"` + testProductID + `","name":"Mango Pickle","price":250,"outOfStock":false}`))
	})
	router, _ := newTestRouter(t, mux)

	// First request gets a session id
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/checkout/cart/items",
		strings.NewReader(`{"productId":"`+testProductID+`","quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sessionID := w.Header().Get("X-Session-ID")
	require.NotEmpty(t, sessionID)

	var cart struct {
		Items []struct {
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
		TotalPrice      float64 `json:"totalPrice"`
		ShippingCharges float64 `json:"shippingCharges"`
		FinalTotal      float64 `json:"finalTotal"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 500.0, cart.TotalPrice)
	assert.Equal(t, 100.0, cart.ShippingCharges)
	assert.Equal(t, 600.0, cart.FinalTotal)

	// The same session id resumes the same cart
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/checkout/cart", nil)
	req.Header.Set("X-Session-ID", sessionID)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, testProductID, cart.Items[0].ProductID)
}

func TestProductProxy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/products/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pickle", r.URL.Query().Get("query"))
		w.Write([]byte(`[{"_id":"` + testProductID + `","name":"Mango Pickle","price":250}]`))
	})
	router, _ := newTestRouter(t, mux)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/products?query=pickle", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mango Pickle")
}

func TestCouponRequiresLogin(t *testing.T) {
	router, _ := newTestRouter(t, http.NewServeMux())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/checkout/coupon",
		strings.NewReader(`{"code":"SAVE20"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Please log in or sign up to use coupons")
}

func TestInitiatePaymentValidationError(t *testing.T) {
	router, _ := newTestRouter(t, http.NewServeMux())

	// Empty cart, no address, no payment method: every violation comes
	// back in one 422
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/checkout/payment", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Details, "Cart must contain at least one item")
	assert.Contains(t, body.Details, "Payment method is required")
}

func TestPaymentReturnWithoutPending(t *testing.T) {
	router, _ := newTestRouter(t, http.NewServeMux())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/checkout/payment/return",
		strings.NewReader(`{"success":"true","transactionId":"txn_1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSupportRoutesAbsentWithoutDatabase(t *testing.T) {
	router, _ := newTestRouter(t, http.NewServeMux())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/support/events?orderId=x", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBearerTokenAttachesToSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/cart", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	})
	router, sessions := newTestRouter(t, mux)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/checkout/cart", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	sess := sessions.Get(w.Header().Get("X-Session-ID"))
	require.NotNil(t, sess)
	assert.True(t, sess.IsLoggedIn())
}
