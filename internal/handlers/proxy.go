package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"evermedia/gateway/internal/upstream"
)

// Headers forwarded in each direction. Hop-by-hop and credential headers stay
// out: the transport owns Authorization.
var (
	forwardRequestHeaders  = []string{"Content-Type", "Accept", "Accept-Language"}
	forwardResponseHeaders = []string{"Content-Type", "Content-Disposition", "Cache-Control", "ETag", "Last-Modified"}
)

// Proxy forwards /api/<resource>/... to the backend through the authed
// client. Bodies stream through untouched, so multipart uploads keep the
// boundary their writer generated; non-2xx statuses pass through for the
// calling view to handle.
func (h HandlerSet) Proxy(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	resource, _, _ := strings.Cut(path, "/")
	if !upstream.ProxyAllowed(resource) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_resource"})
		return
	}

	target := h.factory.URL(path)
	if raw := c.Request.URL.RawQuery; raw != "" {
		target += "?" + raw
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	// The body is an opaque reader, so the length the browser declared has to
	// be carried over explicitly or the upstream request goes out chunked.
	req.ContentLength = c.Request.ContentLength
	for _, name := range forwardRequestHeaders {
		if value := c.GetHeader(name); value != "" {
			req.Header.Set(name, value)
		}
	}

	resp, err := h.authed.Do(req)
	if err != nil {
		h.log.Error().Err(err).Str("target", target).Msg("proxy request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream_unreachable"})
		return
	}
	defer resp.Body.Close()

	for _, name := range forwardResponseHeaders {
		if value := resp.Header.Get(name); value != "" {
			c.Header(name, value)
		}
	}
	c.Status(resp.StatusCode)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		h.log.Warn().Err(err).Str("target", target).Msg("proxy body copy failed")
	}
}
