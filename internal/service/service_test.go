package service

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/backend"
	"github.com/ripenred/checkout-api/internal/config"
	"github.com/ripenred/checkout-api/internal/session"
)

var testPincodes = []string{"110001", "110002", "110025", "110096"}

// newTestClient stands up a fake store backend and a client pointed at
// it. Retries are disabled so failure paths stay single-shot.
func newTestClient(t *testing.T, handler http.Handler) *backend.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.BackendConfig{
		RequestTimeout: 2 * time.Second,
		RetryAttempts:  0,
		RetryInterval:  10 * time.Millisecond,
	}
	return backend.NewClient(cfg, server.URL, zap.NewNop())
}

func newTestSessions() *session.Store {
	return session.NewStore(time.Hour)
}

func guestSession(store *session.Store) *session.Session {
	return store.GetOrCreate("")
}

func userSession(store *session.Store) *session.Session {
	sess := store.GetOrCreate("")
	store.Update(sess.ID, func(s *session.Session) {
		s.Token = "user-token"
		s.UserID = "user_1"
	})
	return sess
}

func productJSON(id, name string, price float64, outOfStock bool) string {
	return fmt.Sprintf(`{"_id":%q,"name":%q,"price":%g,"image":"/img/%s.jpg","outOfStock":%t}`,
		id, name, price, id, outOfStock)
}
