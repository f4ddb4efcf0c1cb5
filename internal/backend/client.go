package backend

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/config"
)

// APIError is a semantic (non-transport) failure from the store backend.
// The message is surfaced verbatim to the user and never retried.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to the upstream store REST API. Every mutating request
// carries a fresh idempotency key and the client's CSRF token; transport
// failures are retried with exponential backoff, semantic failures are not.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *zap.Logger
	csrfToken      string
	requestTimeout time.Duration
	retryAttempts  int
	retryInterval  time.Duration

	mu        sync.Mutex
	idempKeys map[string]idempRecord
}

type idempRecord struct {
	Endpoint string
	Method   string
	IssuedAt time.Time
}

const idempKeyMaxAge = time.Hour

// NewClient creates a client for the store backend. baseURL should come
// from ResolveBaseURL so the runtime-advertised address wins over config.
func NewClient(cfg config.BackendConfig, baseURL string, logger *zap.Logger) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:         logger,
		csrfToken:      newCSRFToken(),
		requestTimeout: cfg.RequestTimeout,
		retryAttempts:  cfg.RetryAttempts,
		retryInterval:  cfg.RetryInterval,
		idempKeys:      make(map[string]idempRecord),
	}
}

// ResolveBaseURL asks the runtime config endpoint for the advertised API
// base. If the endpoint is unreachable the configured default is used,
// so the service stays available with a degraded configuration.
func ResolveBaseURL(ctx context.Context, cfg config.BackendConfig, logger *zap.Logger) string {
	if cfg.ConfigURL == "" {
		return cfg.BaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.ConfigURL, nil)
	if err != nil {
		logger.Warn("Invalid backend config URL, using fallback", zap.Error(err))
		return cfg.BaseURL
	}

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		logger.Warn("Failed to fetch runtime API configuration, using fallback",
			zap.String("configUrl", cfg.ConfigURL), zap.Error(err))
		return cfg.BaseURL
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Runtime API configuration returned non-200, using fallback",
			zap.Int("status", resp.StatusCode))
		return cfg.BaseURL
	}

	var advertised struct {
		APIBaseURL string `json:"API_BASE_URL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&advertised); err != nil || advertised.APIBaseURL == "" {
		logger.Warn("Malformed runtime API configuration, using fallback", zap.Error(err))
		return cfg.BaseURL
	}

	logger.Info("Resolved backend API base from runtime configuration",
		zap.String("baseUrl", advertised.APIBaseURL))
	return advertised.APIBaseURL
}

// GenerateIdempotencyKey returns a fresh unique key for one logical
// mutating request. The key stays stable across retries of that request
// so the backend can collapse duplicates instead of double-creating.
func (c *Client) GenerateIdempotencyKey() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("idemp_%s_%s", ts, random)
}

func (c *Client) trackIdempotencyKey(key, endpoint, method string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.idempKeys[key] = idempRecord{Endpoint: endpoint, Method: method, IssuedAt: time.Now()}

	// Prune keys older than an hour; keeps the map bounded
	cutoff := time.Now().Add(-idempKeyMaxAge)
	for k, rec := range c.idempKeys {
		if rec.IssuedAt.Before(cutoff) {
			delete(c.idempKeys, k)
		}
	}
}

// TrackedIdempotencyKeys reports how many keys are currently retained
func (c *Client) TrackedIdempotencyKeys() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.idempKeys)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}

// do executes one logical request against the backend. Transport-class
// failures (dial errors, timeouts, aborted connections) are retried with
// exponential backoff up to the attempt cap; any HTTP response, success
// or not, ends the retry loop.
func (c *Client) do(ctx context.Context, method, endpoint, token string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	idempotencyKey := ""
	if isMutating(method) {
		idempotencyKey = c.GenerateIdempotencyKey()
		c.trackIdempotencyKey(idempotencyKey, endpoint, method)
	}

	attempt := 0
	operation := func() error {
		attempt++

		reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+endpoint, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-CSRF-Token", c.csrfToken)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if idempotencyKey != "" {
			req.Header.Set("X-Idempotency-Key", idempotencyKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				// Caller gave up; do not keep retrying
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Warn("Backend request failed, may retry",
				zap.String("method", method),
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
			var errResp struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(respBody, &errResp) == nil && errResp.Message != "" {
				msg = errResp.Message
			}
			// Semantic failures are never retried
			return backoff.Permanent(&APIError{StatusCode: resp.StatusCode, Message: msg})
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to unmarshal response: %w", err))
			}
		}

		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	policy.RandomizationFactor = 0

	maxRetries := uint64(0)
	if c.retryAttempts > 0 {
		maxRetries = uint64(c.retryAttempts)
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries), ctx))
}

func newCSRFToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means a broken platform; fall back to a UUID
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return hex.EncodeToString(buf)
}
