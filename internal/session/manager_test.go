package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evermedia/gateway/internal/roles"
	"evermedia/gateway/internal/tokenstore"
)

const sid = "sid-test"

func newManager(t *testing.T) (*Manager, *tokenstore.MemoryStore) {
	t.Helper()
	store := tokenstore.NewMemoryStore()
	return NewManager(store, 0, zerolog.Nop()), store
}

func validCreds() Credentials {
	return Credentials{
		Access:   "access-tok",
		Refresh:  "refresh-tok",
		Role:     roles.RoleUser,
		Username: "alice",
	}
}

func TestAuthenticatedTracksAccessPresence(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
		want    bool
	}{
		{name: "both present", access: "a", refresh: "r", want: true},
		{name: "both absent", access: "", refresh: "", want: false},
		{name: "access only", access: "a", refresh: "", want: true},
		{name: "refresh only", access: "", refresh: "r", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := Session{Access: tt.access, Refresh: tt.refresh}
			assert.Equal(t, tt.want, sess.Authenticated())
		})
	}
}

func TestLoginRequiresBothTokens(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		mod  func(*Credentials)
		want error
	}{
		{name: "missing access", mod: func(c *Credentials) { c.Access = "" }, want: ErrMissingAccess},
		{name: "sentinel access", mod: func(c *Credentials) { c.Access = "null" }, want: ErrMissingAccess},
		{name: "missing refresh", mod: func(c *Credentials) { c.Refresh = "" }, want: ErrMissingRefresh},
		{name: "sentinel refresh", mod: func(c *Credentials) { c.Refresh = "undefined" }, want: ErrMissingRefresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, store := newManager(t)
			creds := validCreds()
			tt.mod(&creds)

			err := mgr.Login(ctx, sid, creds)
			require.ErrorIs(t, err, tt.want)

			// A rejected login never partially persists.
			for _, key := range tokenstore.KnownKeys {
				value, getErr := store.Get(ctx, sid, key)
				require.NoError(t, getErr)
				assert.Empty(t, value, key)
			}
			assert.False(t, mgr.IsAuthenticated(ctx, sid))
		})
	}
}

func TestLoginPersistsAndAuthenticates(t *testing.T) {
	ctx := context.Background()
	mgr, store := newManager(t)

	require.NoError(t, mgr.Login(ctx, sid, validCreds()))

	assert.True(t, mgr.IsAuthenticated(ctx, sid))

	sess, err := mgr.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "access-tok", sess.Access)
	assert.Equal(t, "refresh-tok", sess.Refresh)
	assert.Equal(t, roles.RoleUser, sess.Role)
	assert.Equal(t, "alice", sess.Username)

	// The store mirrors every field.
	access, err := store.Get(ctx, sid, tokenstore.KeyAccess)
	require.NoError(t, err)
	assert.Equal(t, "access-tok", access)
}

func TestLogoutResetsEverything(t *testing.T) {
	ctx := context.Background()
	mgr, store := newManager(t)

	require.NoError(t, mgr.Login(ctx, sid, validCreds()))
	require.NoError(t, store.Set(ctx, sid, tokenstore.KeyAuthData, "legacy-blob"))

	require.NoError(t, mgr.Logout(ctx, sid))

	sess, err := mgr.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, Session{}, sess)
	assert.False(t, mgr.IsAuthenticated(ctx, sid))

	for _, key := range tokenstore.KnownKeys {
		value, err := store.Get(ctx, sid, key)
		require.NoError(t, err)
		assert.Empty(t, value, key)
	}

	// Idempotent when already logged out.
	require.NoError(t, mgr.Logout(ctx, sid))
}

func TestUpdateMergesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newManager(t)

	require.NoError(t, mgr.Login(ctx, sid, validCreds()))

	admin := roles.RoleAdmin
	require.NoError(t, mgr.Update(ctx, sid, Partial{Role: &admin}))

	sess, err := mgr.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, roles.RoleAdmin, sess.Role)
	assert.Equal(t, "access-tok", sess.Access)
	assert.Equal(t, "refresh-tok", sess.Refresh)
	assert.Equal(t, "alice", sess.Username)

	newAccess := "rotated"
	require.NoError(t, mgr.Update(ctx, sid, Partial{Access: &newAccess}))

	sess, err = mgr.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "rotated", sess.Access)
	assert.Equal(t, "refresh-tok", sess.Refresh)
	assert.Equal(t, roles.RoleAdmin, sess.Role)
}

func TestGetTreatsSentinelsAsAbsent(t *testing.T) {
	ctx := context.Background()
	mgr, store := newManager(t)

	require.NoError(t, store.Set(ctx, sid, tokenstore.KeyAccess, "null"))
	require.NoError(t, store.Set(ctx, sid, tokenstore.KeyRefresh, "undefined"))

	sess, err := mgr.Get(ctx, sid)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Empty(t, sess.Refresh)
}

func TestSubscribersSeeMutations(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newManager(t)

	var events []EventKind
	mgr.Subscribe(func(event Event) {
		events = append(events, event.Kind)
	})

	require.NoError(t, mgr.Login(ctx, sid, validCreds()))
	username := "bob"
	require.NoError(t, mgr.Update(ctx, sid, Partial{Username: &username}))
	require.NoError(t, mgr.Logout(ctx, sid))

	assert.Equal(t, []EventKind{EventLogin, EventUpdate, EventLogout}, events)
}

func expiringToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func TestDeadlineCappedAtTokenExpiry(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	mgr := NewManager(store, 720*time.Hour, zerolog.Nop())

	now := time.Now()
	creds := validCreds()
	creds.Access = expiringToken(t, now.Add(time.Hour))

	require.NoError(t, mgr.Login(ctx, sid, creds))

	// Inside the token's lifetime the session survives.
	assert.Zero(t, store.Sweep(now.Add(30*time.Minute)))
	// Past the exp claim the sweeper reclaims it, long before the TTL.
	assert.Equal(t, 1, store.Sweep(now.Add(2*time.Hour)))
}

func TestOpaqueTokenGetsFullTTL(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	mgr := NewManager(store, time.Hour, zerolog.Nop())

	require.NoError(t, mgr.Login(ctx, sid, validCreds()))

	assert.Zero(t, store.Sweep(time.Now().Add(30*time.Minute)))
	assert.Equal(t, 1, store.Sweep(time.Now().Add(2*time.Hour)))
}

func TestRefreshExtendsDeadline(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	mgr := NewManager(store, 720*time.Hour, zerolog.Nop())

	now := time.Now()
	creds := validCreds()
	creds.Access = expiringToken(t, now.Add(time.Hour))
	require.NoError(t, mgr.Login(ctx, sid, creds))

	rotated := expiringToken(t, now.Add(3*time.Hour))
	require.NoError(t, mgr.Update(ctx, sid, Partial{Access: &rotated}))

	// The rotated token pushed the deadline past the old exp.
	assert.Zero(t, store.Sweep(now.Add(2*time.Hour)))
	assert.Equal(t, 1, store.Sweep(now.Add(4*time.Hour)))
}

func TestHandleUnauthorizedIgnoresStaleToken(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newManager(t)

	require.NoError(t, mgr.Login(ctx, sid, validCreds()))

	// A 401 carrying an already-rotated token must not clear the session.
	mgr.HandleUnauthorized(ctx, sid, "old-token")
	assert.True(t, mgr.IsAuthenticated(ctx, sid))

	// A 401 for the current token does.
	mgr.HandleUnauthorized(ctx, sid, "access-tok")
	assert.False(t, mgr.IsAuthenticated(ctx, sid))
}
