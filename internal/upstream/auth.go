package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// StatusError carries a non-2xx upstream response to the caller. The gateway
// handles no business error globally; forms and views decide what to show.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// TokenPayload is the normalized result of a credential or OAuth login.
type TokenPayload struct {
	Access   string
	Refresh  string
	Username string
	Role     string
}

// AuthAPI wraps the upstream account endpoints. Login-family calls ride the
// public client; logout sets its bearer header by hand because the session is
// being torn down as it runs.
type AuthAPI struct {
	factory *Factory
	client  *http.Client
	log     zerolog.Logger
}

func NewAuthAPI(factory *Factory, log zerolog.Logger) *AuthAPI {
	return &AuthAPI{
		factory: factory,
		client:  factory.Public(),
		log:     log,
	}
}

// authEnvelope covers the token response shapes the backend has shipped:
// {tokens:{access,refresh},user} and the flat {access,refresh,user}.
type authEnvelope struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Tokens  *struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
	User *struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}

func (e authEnvelope) normalize() TokenPayload {
	payload := TokenPayload{
		Access:  e.Access,
		Refresh: e.Refresh,
	}
	if e.Tokens != nil {
		payload.Access = e.Tokens.Access
		payload.Refresh = e.Tokens.Refresh
	}
	if e.User != nil {
		payload.Username = e.User.Username
		payload.Role = e.User.Role
	}
	return payload
}

// Login exchanges credentials at the upstream token endpoint.
func (a *AuthAPI) Login(ctx context.Context, username string, password string) (TokenPayload, error) {
	var envelope authEnvelope
	err := a.postJSON(ctx, a.factory.URL(EndpointToken), map[string]string{
		"username": username,
		"password": password,
	}, &envelope, "")
	if err != nil {
		return TokenPayload{}, err
	}
	return envelope.normalize(), nil
}

// ExchangeGoogle forwards a Google credential token. The returned payload is
// applied exactly as a password login would be.
func (a *AuthAPI) ExchangeGoogle(ctx context.Context, credential string) (TokenPayload, error) {
	var envelope authEnvelope
	err := a.postJSON(ctx, a.factory.URL(EndpointOAuthGoogle), map[string]string{
		"credential": credential,
	}, &envelope, "")
	if err != nil {
		return TokenPayload{}, err
	}
	return envelope.normalize(), nil
}

// Refresh mints a new access token from a refresh token.
func (a *AuthAPI) Refresh(ctx context.Context, refresh string) (string, error) {
	var result struct {
		Access string `json:"access"`
	}
	err := a.postJSON(ctx, a.factory.URL(EndpointTokenRefresh), map[string]string{
		"refresh": refresh,
	}, &result, "")
	if err != nil {
		return "", err
	}
	if result.Access == "" {
		return "", fmt.Errorf("refresh response carried no access token")
	}
	return result.Access, nil
}

// Logout invalidates the session upstream. Best effort: callers clear local
// state whether or not this succeeds.
func (a *AuthAPI) Logout(ctx context.Context, access string) error {
	return a.postJSON(ctx, a.factory.URL(EndpointLogout), map[string]string{}, nil, access)
}

func (a *AuthAPI) postJSON(ctx context.Context, url string, body any, out any, bearer string) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
