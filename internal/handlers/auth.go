package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"evermedia/gateway/internal/middleware"
	"evermedia/gateway/internal/roles"
	"evermedia/gateway/internal/security"
	"evermedia/gateway/internal/session"
	"evermedia/gateway/internal/upstream"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Next     string `json:"next"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
	Username      string `json:"username,omitempty"`
	Redirect      string `json:"redirect,omitempty"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := h.authAPI.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.upstreamAuthError(c, err)
		return
	}

	h.establishSession(c, payload, req.Next)
}

type oauthRequest struct {
	Credential string `json:"credential" binding:"required"`
	Next       string `json:"next"`
}

func (h HandlerSet) OAuthGoogle(c *gin.Context) {
	var req oauthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := h.authAPI.ExchangeGoogle(c.Request.Context(), req.Credential)
	if err != nil {
		h.upstreamAuthError(c, err)
		return
	}

	// An OAuth payload is applied exactly as a password login would be.
	h.establishSession(c, payload, req.Next)
}

func (h HandlerSet) establishSession(c *gin.Context, payload upstream.TokenPayload, next string) {
	sid := middleware.SID(c)

	role := roles.Parse(payload.Role)
	username := payload.Username
	if role == roles.RoleUnknown || username == "" {
		// Older token responses omit the user block; the access token's own
		// claims are the fallback.
		if claims, err := security.InspectAccessToken(payload.Access); err == nil {
			if role == roles.RoleUnknown {
				role = roles.Parse(claims.Role)
			}
			if username == "" {
				username = claims.Username
			}
		}
	}

	err := h.sessions.Login(c.Request.Context(), sid, session.Credentials{
		Access:   payload.Access,
		Refresh:  payload.Refresh,
		Role:     role,
		Username: username,
	})
	if err != nil {
		h.log.Error().Err(err).Str("sid", sid).Msg("session login failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "incomplete_token_response"})
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		Authenticated: true,
		Role:          role.String(),
		Username:      username,
		Redirect:      landingPath(role, next),
	})
}

// landingPath picks the post-login destination: a validated return target if
// the caller carried one, otherwise the role's home.
func landingPath(role roles.Role, next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return roles.Home(role)
}

func (h HandlerSet) upstreamAuthError(c *gin.Context, err error) {
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusBadRequest:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		case statusErr.StatusCode >= 500:
			c.JSON(http.StatusBadGateway, gin.H{"error": "upstream_error"})
		default:
			c.JSON(statusErr.StatusCode, gin.H{"error": "login_failed"})
		}
		return
	}
	h.log.Error().Err(err).Msg("upstream auth call failed")
	c.JSON(http.StatusBadGateway, gin.H{"error": "upstream_unreachable"})
}

func (h HandlerSet) Logout(c *gin.Context) {
	sid := middleware.SID(c)

	sess, err := h.sessions.Get(c.Request.Context(), sid)
	if err == nil && sess.Access != "" {
		// Best effort; local state clears regardless.
		if err := h.authAPI.Logout(c.Request.Context(), sess.Access); err != nil {
			h.log.Warn().Err(err).Str("sid", sid).Msg("upstream logout failed")
		}
	}

	if err := h.sessions.Logout(c.Request.Context(), sid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// Refresh performs an explicit refresh-token exchange. Nothing calls this
// automatically; expiry is detected reactively via 401s, and a failed
// exchange ends the session.
func (h HandlerSet) Refresh(c *gin.Context) {
	sid := middleware.SID(c)

	sess, err := h.sessions.Get(c.Request.Context(), sid)
	if err != nil || sess.Refresh == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no_refresh_token"})
		return
	}

	access, err := h.authAPI.Refresh(c.Request.Context(), sess.Refresh)
	if err != nil {
		var statusErr *upstream.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			if logoutErr := h.sessions.Logout(c.Request.Context(), sid); logoutErr != nil {
				h.log.Error().Err(logoutErr).Str("sid", sid).Msg("logout after failed refresh")
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh_rejected"})
			return
		}
		h.log.Error().Err(err).Str("sid", sid).Msg("token refresh failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream_unreachable"})
		return
	}

	if err := h.sessions.Update(c.Request.Context(), sid, session.Partial{Access: &access}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"refreshed": true})
}

// Session reports the current session without leaking token material.
func (h HandlerSet) Session(c *gin.Context) {
	sid := middleware.SID(c)

	sess, err := h.sessions.Get(c.Request.Context(), sid)
	if err != nil {
		h.log.Warn().Err(err).Str("sid", sid).Msg("session read failed")
		sess = session.Session{}
	}

	c.JSON(http.StatusOK, sessionResponse{
		Authenticated: sess.Authenticated(),
		Role:          sess.Role.String(),
		Username:      sess.Username,
	})
}
