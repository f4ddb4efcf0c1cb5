package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/session"
)

const (
	sessionContextKey = "checkout_session"
	sessionHeader     = "X-Session-ID"
	sessionCookie     = "checkout_session"
)

// SessionMiddleware attaches a checkout session to every request. The
// session id comes from the X-Session-ID header or the session cookie;
// an unknown or missing id gets a fresh session, and the id is echoed
// back on the response so the storefront can persist it.
func SessionMiddleware(sessions *session.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(sessionHeader)
		if id == "" {
			if cookie, err := c.Cookie(sessionCookie); err == nil {
				id = cookie
			}
		}

		sess := sessions.GetOrCreate(id)
		if sess.ID != id {
			logger.Debug("Created checkout session", zap.String("sessionId", sess.ID))
		}

		// A bearer token marks the session as an authenticated user's
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token := strings.TrimPrefix(auth, "Bearer ")
			if token != "" && token != sess.Token {
				sessions.Update(sess.ID, func(sess *session.Session) {
					sess.Token = token
				})
			}
		}

		c.Header(sessionHeader, sess.ID)
		c.SetCookie(sessionCookie, sess.ID, 0, "/", "", false, true)
		c.Set(sessionContextKey, sess)

		c.Next()
	}
}

// GetSessionFromContext retrieves the checkout session attached by
// SessionMiddleware
func GetSessionFromContext(c *gin.Context) (*session.Session, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}
	sess, ok := value.(*session.Session)
	return sess, ok
}
