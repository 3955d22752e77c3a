package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"evermedia/gateway/internal/guard"
	"evermedia/gateway/internal/roles"
	"evermedia/gateway/internal/session"
)

// NoticeHeader carries the guard's one-shot advisory to the frontend, which
// renders it as a toast.
const NoticeHeader = "X-Session-Notice"

// Guard gates a navigation route. The guard instance lives as long as the
// route, so the one-shot notices are suppressed on repeated redirects of the
// same caller.
func Guard(sessions *session.Manager, log zerolog.Logger, required ...roles.Role) gin.HandlerFunc {
	g := guard.New(required...)

	// Logout releases the caller's one-shot notice state, so the next denial
	// after a fresh login warns again.
	sessions.Subscribe(func(event session.Event) {
		if event.Kind == session.EventLogout {
			g.Reset(event.SID)
		}
	})

	return func(c *gin.Context) {
		sid := SID(c)

		sess, err := sessions.Get(c.Request.Context(), sid)
		if err != nil {
			// Unreadable session is indistinguishable from anonymous.
			log.Warn().Err(err).Str("sid", sid).Msg("guard session read failed")
			sess = session.Session{}
		}

		decision := g.Evaluate(sid, sess, c.Request.URL.Path)
		if decision.Notice != "" {
			c.Header(NoticeHeader, decision.Notice)
		}

		switch decision.Action {
		case guard.ActionRedirectLogin:
			log.Debug().Str("sid", sid).Str("path", c.Request.URL.Path).Msg("guard: login required")
			c.Redirect(http.StatusFound, decision.Target)
			c.Abort()
		case guard.ActionRedirectHome:
			log.Debug().
				Str("sid", sid).
				Str("role", sess.Role.String()).
				Str("path", c.Request.URL.Path).
				Msg("guard: role not permitted")
			c.Redirect(http.StatusFound, decision.Target)
			c.Abort()
		default:
			c.Next()
		}
	}
}
