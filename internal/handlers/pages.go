package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const appShell = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Evermedia</title></head>
<body><div id="root"></div><script src="/static/app.js"></script></body>
</html>
`

// AppShell serves the SPA shell for guarded navigation routes. The bundle
// takes over client-side rendering once loaded.
func (h HandlerSet) AppShell(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(appShell))
}

// LoginPage serves the shell with the public auth configuration inlined for
// the Google sign-in and reCAPTCHA widgets.
func (h HandlerSet) LoginPage(c *gin.Context) {
	page := fmt.Sprintf(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Sign in | Evermedia</title>
<script>window.__AUTH_CONFIG__={googleClientId:%q,recaptchaSiteKey:%q};</script>
</head>
<body><div id="root"></div><script src="/static/app.js"></script></body>
</html>
`, h.cfg.OAuth.GoogleClientID, h.cfg.OAuth.RecaptchaSiteKey)

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (h HandlerSet) UnauthorizedPage(c *gin.Context) {
	c.Data(http.StatusForbidden, "text/html; charset=utf-8", []byte(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Unauthorized | Evermedia</title></head>
<body><h1>You do not have access to this page.</h1><a href="/">Back to home</a></body>
</html>
`))
}
