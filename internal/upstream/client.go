package upstream

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"evermedia/gateway/internal/config"
	"evermedia/gateway/internal/tokenstore"
)

const (
	devBaseURL  = "http://localhost:8000/api/"
	prodBaseURL = "https://backend.evermedia.app/api/"

	defaultPublicTimeout = 8 * time.Second
)

// Factory builds the two upstream clients: a public one for anonymous calls
// and an authed one whose transport attaches session credentials.
type Factory struct {
	baseURL       string
	publicTimeout time.Duration
	log           zerolog.Logger
}

func NewFactory(cfg config.UpstreamConfig, environment string, log zerolog.Logger) *Factory {
	timeout := cfg.PublicTimeout
	if timeout <= 0 {
		timeout = defaultPublicTimeout
	}

	return &Factory{
		baseURL:       ResolveBaseURL(cfg.BaseURL, environment),
		publicTimeout: timeout,
		log:           log,
	}
}

// ResolveBaseURL picks the configured base URL, falling back to the hardcoded
// dev or prod default, and normalizes the trailing slash.
func ResolveBaseURL(configured string, environment string) string {
	base := strings.TrimSpace(configured)
	if base == "" {
		if environment == "production" {
			base = prodBaseURL
		} else {
			base = devBaseURL
		}
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func (f *Factory) BaseURL() string {
	return f.baseURL
}

// URL joins a relative endpoint path onto the upstream base.
func (f *Factory) URL(path string) string {
	return f.baseURL + strings.TrimPrefix(path, "/")
}

// Public returns a client for anonymous calls with a fixed overall timeout.
func (f *Factory) Public() *http.Client {
	return &http.Client{
		Timeout: f.publicTimeout,
		Transport: &publicTransport{
			next: http.DefaultTransport,
			log:  f.log,
		},
	}
}

// Authed returns a client whose transport reads the caller's access token
// from the store and reports 401s through onUnauthorized. No overall timeout:
// long-running uploads ride this client, and callers cancel via context.
func (f *Factory) Authed(store tokenstore.Store, onUnauthorized UnauthorizedFunc) *http.Client {
	return &http.Client{
		Transport: &authTransport{
			next:           http.DefaultTransport,
			store:          store,
			onUnauthorized: onUnauthorized,
			log:            f.log,
			handled:        make(map[string]string),
		},
	}
}
