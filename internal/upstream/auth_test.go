package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginNormalizesNestedTokenShape(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+EndpointToken, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["username"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tokens":{"access":"a1","refresh":"r1"},"user":{"username":"alice","role":"worker"}}`))
	}))
	defer upstream.Close()

	api := NewAuthAPI(newFactoryFor(t, upstream.URL), zerolog.Nop())

	payload, err := api.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, TokenPayload{Access: "a1", Refresh: "r1", Username: "alice", Role: "worker"}, payload)
}

func TestLoginNormalizesFlatTokenShape(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access":"a2","refresh":"r2","user":{"username":"bob","role":"admin"}}`))
	}))
	defer upstream.Close()

	api := NewAuthAPI(newFactoryFor(t, upstream.URL), zerolog.Nop())

	payload, err := api.Login(context.Background(), "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, TokenPayload{Access: "a2", Refresh: "r2", Username: "bob", Role: "admin"}, payload)
}

func TestLoginSurfacesStatusError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid credentials"}`, http.StatusUnauthorized)
	}))
	defer upstream.Close()

	api := NewAuthAPI(newFactoryFor(t, upstream.URL), zerolog.Nop())

	_, err := api.Login(context.Background(), "alice", "wrong")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestRefreshReturnsNewAccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+EndpointTokenRefresh, r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "r1", body["refresh"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access":"a-new"}`))
	}))
	defer upstream.Close()

	api := NewAuthAPI(newFactoryFor(t, upstream.URL), zerolog.Nop())

	access, err := api.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "a-new", access)
}

func TestRefreshRejectsEmptyAccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	api := NewAuthAPI(newFactoryFor(t, upstream.URL), zerolog.Nop())

	_, err := api.Refresh(context.Background(), "r1")
	require.Error(t, err)
}

func TestLogoutCarriesBearer(t *testing.T) {
	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	api := NewAuthAPI(newFactoryFor(t, upstream.URL), zerolog.Nop())

	require.NoError(t, api.Logout(context.Background(), "tok"))
	assert.Equal(t, "Bearer tok", gotAuth)
}
