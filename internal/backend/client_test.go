package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/config"
	"github.com/ripenred/checkout-api/internal/domain"
)

func testConfig() config.BackendConfig {
	return config.BackendConfig{
		RequestTimeout: 2 * time.Second,
		RetryAttempts:  3,
		RetryInterval:  10 * time.Millisecond,
	}
}

func TestMutatingRequestHeaders(t *testing.T) {
	var gotCSRF, gotIdemp, gotAuth, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCSRF = r.Header.Get("X-CSRF-Token")
		gotIdemp = r.Header.Get("X-Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(), server.URL, zap.NewNop())
	err := client.AddCartItem(context.Background(), "tok123", domain.CartItemRef{
		ProductID: "507f1f77bcf86cd799439011",
		Quantity:  2,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, gotCSRF)
	assert.True(t, strings.HasPrefix(gotIdemp, "idemp_"), "idempotency key %q", gotIdemp)
	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, 1, client.TrackedIdempotencyKeys())
}

func TestGetRequestsCarryNoIdempotencyKey(t *testing.T) {
	var gotIdemp string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdemp = r.Header.Get("X-Idempotency-Key")
		w.Write([]byte(`{"_id":"507f1f77bcf86cd799439011","name":"Mango Pickle","price":250}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(), server.URL, zap.NewNop())
	product, err := client.GetProduct(context.Background(), "507f1f77bcf86cd799439011")
	require.NoError(t, err)

	assert.Empty(t, gotIdemp)
	assert.Equal(t, "Mango Pickle", product.Name)
	assert.Equal(t, 250.0, product.Price)
	assert.Equal(t, 0, client.TrackedIdempotencyKeys())
}

func TestTransportFailureRetriedWithStableKey(t *testing.T) {
	var attempts int32
	var mu sync.Mutex
	var keys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		mu.Lock()
		keys = append(keys, r.Header.Get("X-Idempotency-Key"))
		mu.Unlock()
		if n < 3 {
			// Kill the connection mid-response to simulate a network fault
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(), server.URL, zap.NewNop())
	err := client.ClearCart(context.Background(), "tok123")
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	// One logical request means one idempotency key on every attempt
	require.Len(t, keys, 3)
	assert.Equal(t, keys[0], keys[1])
	assert.Equal(t, keys[0], keys[2])
	assert.Equal(t, 1, client.TrackedIdempotencyKeys())
}

func TestHTTPErrorNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid coupon code"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(), server.URL, zap.NewNop())
	_, err := client.ApplyCoupon(context.Background(), "tok123", "BOGUS", 900)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	// The backend's message surfaces verbatim
	assert.Equal(t, "Invalid coupon code", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestServerErrorNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(), server.URL, zap.NewNop())
	_, err := client.GetCart(context.Background(), "tok123")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestRetriesExhausted(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		hj := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	defer server.Close()

	client := NewClient(testConfig(), server.URL, zap.NewNop())
	err := client.ClearCart(context.Background(), "tok123")
	require.Error(t, err)

	// Initial attempt plus the configured retries
	assert.Equal(t, int32(4), atomic.LoadInt32(&attempts))
}

func TestGenerateIdempotencyKeyUnique(t *testing.T) {
	client := NewClient(testConfig(), "http://localhost", zap.NewNop())
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		key := client.GenerateIdempotencyKey()
		assert.True(t, strings.HasPrefix(key, "idemp_"))
		_, dup := seen[key]
		assert.False(t, dup, "duplicate key %s", key)
		seen[key] = struct{}{}
	}
}

func TestCreateOrderRequiresOrderID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(), server.URL, zap.NewNop())
	_, err := client.CreateOrder(context.Background(), "tok123", &domain.OrderData{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no order id")
}

func TestVerifyPaymentStringSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":"true","message":"Payment verified"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(), server.URL, zap.NewNop())
	result, err := client.VerifyPayment(context.Background(), "tok123", VerifyPaymentRequest{OrderID: "ord_1"})
	require.NoError(t, err)
	assert.True(t, result.Success.Bool())
}

func TestResolveBaseURL(t *testing.T) {
	t.Run("advertised URL wins", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"API_BASE_URL":"https://api.example.com/v2"}`))
		}))
		defer server.Close()

		cfg := config.BackendConfig{BaseURL: "https://fallback.example.com", ConfigURL: server.URL}
		assert.Equal(t, "https://api.example.com/v2", ResolveBaseURL(context.Background(), cfg, zap.NewNop()))
	})

	t.Run("unreachable endpoint falls back", func(t *testing.T) {
		cfg := config.BackendConfig{BaseURL: "https://fallback.example.com", ConfigURL: "http://127.0.0.1:1"}
		assert.Equal(t, "https://fallback.example.com", ResolveBaseURL(context.Background(), cfg, zap.NewNop()))
	})

	t.Run("malformed body falls back", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		cfg := config.BackendConfig{BaseURL: "https://fallback.example.com", ConfigURL: server.URL}
		assert.Equal(t, "https://fallback.example.com", ResolveBaseURL(context.Background(), cfg, zap.NewNop()))
	})
}
