package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"evermedia/gateway/internal/config"
	"evermedia/gateway/internal/ids"
	"evermedia/gateway/internal/session"
)

// SessionIDKey is the gin context key holding the gateway session id.
const SessionIDKey = "session_id"

// GatewaySession mints (or restores) the browser's gateway session id and
// threads it through the request context so the session manager and the
// upstream transport can resolve the caller's credentials.
func GatewaySession(cfg config.SessionConfig) gin.HandlerFunc {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "gw_sid"
	}

	maxAge := 0
	if cfg.TTL > 0 {
		maxAge = int(cfg.TTL.Seconds())
	}

	return func(c *gin.Context) {
		sid, err := c.Cookie(cookieName)
		if err != nil || sid == "" {
			sid = ids.New()
		}

		// Re-set on every response to keep the rolling expiry in step with
		// the token store's TTL.
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, sid, maxAge, "/", "", cfg.CookieSecure, true)

		c.Set(SessionIDKey, sid)
		c.Request = c.Request.WithContext(session.WithSID(c.Request.Context(), sid))

		c.Next()
	}
}

// SID returns the gateway session id for the current request.
func SID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
