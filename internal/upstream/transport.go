package upstream

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"evermedia/gateway/internal/session"
	"evermedia/gateway/internal/tokenstore"
)

// UnauthorizedFunc is invoked when an authed request comes back 401. The
// token that failed is passed along so the session layer can ignore stale
// reports arriving after a refresh.
type UnauthorizedFunc func(ctx context.Context, sid string, staleToken string)

// publicTransport applies verb-based header normalization and diagnostic
// logging. It never attaches credentials.
type publicTransport struct {
	next http.RoundTripper
	log  zerolog.Logger
}

func (t *publicTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	normalizeHeaders(req)

	t.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("upstream public request")

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.log.Debug().Err(err).Str("url", req.URL.String()).Msg("upstream public request failed")
		return nil, err
	}

	t.log.Debug().
		Int("status", resp.StatusCode).
		Str("url", req.URL.String()).
		Msg("upstream public response")
	return resp, nil
}

// authTransport attaches the caller's access token before each request and
// watches responses for authorization failure. It never blocks and never
// retries; every response is handed back to the caller.
type authTransport struct {
	next           http.RoundTripper
	store          tokenstore.Store
	onUnauthorized UnauthorizedFunc
	log            zerolog.Logger

	// handled dedupes 401 reports: one callback invocation per (sid, token),
	// however many in-flight requests fail with the same credentials.
	mu      sync.Mutex
	handled map[string]string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	token := ""
	sid, ok := session.SIDFromContext(req.Context())
	if ok {
		value, err := t.store.Get(req.Context(), sid, tokenstore.KeyAccess)
		if err != nil {
			t.log.Warn().Err(err).Str("sid", sid).Msg("token read failed")
		} else if !tokenstore.Missing(value) {
			token = value
		}
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		// A reused request must not leak a previous session's header.
		req.Header.Del("Authorization")
	}

	normalizeHeaders(req)

	t.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Bool("authenticated", token != "").
		Msg("upstream request")

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.log.Debug().Err(err).Str("url", req.URL.String()).Msg("upstream request failed")
		return nil, err
	}

	t.log.Debug().
		Int("status", resp.StatusCode).
		Str("url", req.URL.String()).
		Msg("upstream response")

	if resp.StatusCode == http.StatusUnauthorized && token != "" && t.onUnauthorized != nil {
		if t.markUnauthorized(sid, token) {
			t.onUnauthorized(req.Context(), sid, token)
		}
	}

	return resp, nil
}

// ForgetSession drops a session's transport state. Wired as a logout
// subscriber so the 401 dedup map does not grow with dead sessions.
func ForgetSession(client *http.Client, sid string) {
	if t, ok := client.Transport.(*authTransport); ok {
		t.forget(sid)
	}
}

func (t *authTransport) forget(sid string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handled, sid)
}

func (t *authTransport) markUnauthorized(sid string, token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handled[sid] == token {
		return false
	}
	t.handled[sid] = token
	return true
}

// normalizeHeaders applies the verb-based content-type rules shared by both
// clients: GET never carries a Content-Type, non-GET bodies default to JSON,
// and multipart bodies keep the boundary-bearing header the writer produced.
func normalizeHeaders(req *http.Request) {
	if req.Method == http.MethodGet {
		req.Header.Del("Content-Type")
		return
	}

	contentType := req.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return
	}
	if req.Body != nil && contentType == "" {
		req.Header.Set("Content-Type", "application/json")
	}
}
