package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"evermedia/gateway/internal/roles"
	"evermedia/gateway/internal/security"
	"evermedia/gateway/internal/tokenstore"
)

var (
	ErrMissingAccess  = errors.New("missing access token")
	ErrMissingRefresh = errors.New("missing refresh token")
)

type EventKind string

const (
	EventLogin  EventKind = "login"
	EventLogout EventKind = "logout"
	EventUpdate EventKind = "update"
)

type Event struct {
	SID     string
	Kind    EventKind
	Session Session
}

// expirer is implemented by stores that need an explicit namespace deadline
// (the memory store). The Redis store expires namespaces via TTL on write.
type expirer interface {
	ExpireAt(ctx context.Context, sid string, deadline time.Time) error
}

// Manager owns session state. The token store is a passive mirror; all
// mutation goes through Login, Logout and Update.
type Manager struct {
	store tokenstore.Store
	ttl   time.Duration
	log   zerolog.Logger

	mu   sync.Mutex
	subs []func(Event)
}

func NewManager(store tokenstore.Store, ttl time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		log:   log,
	}
}

// Subscribe registers a callback invoked after every session mutation.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Manager) notify(event Event) {
	m.mu.Lock()
	subs := make([]func(Event), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}

// Login is the sole transition into the authenticated state. It validates
// that both tokens are present before touching the store, so a rejected login
// never partially persists.
func (m *Manager) Login(ctx context.Context, sid string, creds Credentials) error {
	if tokenstore.Missing(creds.Access) {
		return ErrMissingAccess
	}
	if tokenstore.Missing(creds.Refresh) {
		return ErrMissingRefresh
	}

	fields := map[string]string{
		tokenstore.KeyAccess:   creds.Access,
		tokenstore.KeyRefresh:  creds.Refresh,
		tokenstore.KeyRole:     creds.Role.String(),
		tokenstore.KeyUsername: creds.Username,
	}
	for _, key := range []string{tokenstore.KeyAccess, tokenstore.KeyRefresh, tokenstore.KeyRole, tokenstore.KeyUsername} {
		if err := m.store.Set(ctx, sid, key, fields[key]); err != nil {
			// Roll back so a failed login leaves an anonymous session.
			if clearErr := m.store.Clear(ctx, sid); clearErr != nil {
				m.log.Error().Err(clearErr).Str("sid", sid).Msg("session rollback failed")
			}
			return fmt.Errorf("persist %s: %w", key, err)
		}
	}

	m.stampDeadline(ctx, sid, creds.Access)

	sess := Session{
		Access:   creds.Access,
		Refresh:  creds.Refresh,
		Role:     creds.Role,
		Username: creds.Username,
	}
	m.log.Info().Str("sid", sid).Str("role", creds.Role.String()).Msg("session established")
	m.notify(Event{SID: sid, Kind: EventLogin, Session: sess})
	return nil
}

// Logout clears every persisted key and resets the session to anonymous.
// Safe to call when already logged out.
func (m *Manager) Logout(ctx context.Context, sid string) error {
	for _, key := range tokenstore.KnownKeys {
		if err := m.store.Remove(ctx, sid, key); err != nil {
			m.log.Warn().Err(err).Str("sid", sid).Str("key", key).Msg("session key removal failed")
		}
	}
	if err := m.store.Clear(ctx, sid); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	m.log.Info().Str("sid", sid).Msg("session cleared")
	m.notify(Event{SID: sid, Kind: EventLogout})
	return nil
}

// Update merges the supplied fields into the session, leaving the rest
// untouched. Used for silent token refresh and role correction.
func (m *Manager) Update(ctx context.Context, sid string, partial Partial) error {
	set := func(key string, value string) error {
		if err := m.store.Set(ctx, sid, key, value); err != nil {
			return fmt.Errorf("persist %s: %w", key, err)
		}
		return nil
	}

	if partial.Access != nil {
		if err := set(tokenstore.KeyAccess, *partial.Access); err != nil {
			return err
		}
	}
	if partial.Refresh != nil {
		if err := set(tokenstore.KeyRefresh, *partial.Refresh); err != nil {
			return err
		}
	}
	if partial.Role != nil {
		if err := set(tokenstore.KeyRole, partial.Role.String()); err != nil {
			return err
		}
	}
	if partial.Username != nil {
		if err := set(tokenstore.KeyUsername, *partial.Username); err != nil {
			return err
		}
	}

	sess, err := m.Get(ctx, sid)
	if err != nil {
		return err
	}

	m.stampDeadline(ctx, sid, sess.Access)

	m.notify(Event{SID: sid, Kind: EventUpdate, Session: sess})
	return nil
}

// Get reads the session back from the store. Sentinel values read back as
// absent; a session without an access token is anonymous.
func (m *Manager) Get(ctx context.Context, sid string) (Session, error) {
	read := func(key string) (string, error) {
		value, err := m.store.Get(ctx, sid, key)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", key, err)
		}
		if tokenstore.Missing(value) {
			return "", nil
		}
		return value, nil
	}

	access, err := read(tokenstore.KeyAccess)
	if err != nil {
		return Session{}, err
	}
	refresh, err := read(tokenstore.KeyRefresh)
	if err != nil {
		return Session{}, err
	}
	role, err := read(tokenstore.KeyRole)
	if err != nil {
		return Session{}, err
	}
	username, err := read(tokenstore.KeyUsername)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Access:   access,
		Refresh:  refresh,
		Role:     roles.Parse(role),
		Username: username,
	}, nil
}

// IsAuthenticated reports whether the session holds an access token. A store
// read failure is treated as not logged in.
func (m *Manager) IsAuthenticated(ctx context.Context, sid string) bool {
	sess, err := m.Get(ctx, sid)
	if err != nil {
		m.log.Warn().Err(err).Str("sid", sid).Msg("session read failed")
		return false
	}
	return sess.Authenticated()
}

// HandleUnauthorized is wired as the transport's unauthorized callback at the
// composition root. The staleToken guard keeps a 401 raced against a token
// refresh from tearing down the refreshed session.
func (m *Manager) HandleUnauthorized(ctx context.Context, sid string, staleToken string) {
	sess, err := m.Get(ctx, sid)
	if err == nil && sess.Access != "" && sess.Access != staleToken {
		m.log.Debug().Str("sid", sid).Msg("stale 401 ignored, token already rotated")
		return
	}
	if err := m.Logout(ctx, sid); err != nil {
		m.log.Error().Err(err).Str("sid", sid).Msg("forced logout failed")
	}
}

// stampDeadline sets the namespace deadline to now+ttl, capped at the access
// token's own exp claim when it decodes. Opaque tokens get the full TTL.
func (m *Manager) stampDeadline(ctx context.Context, sid string, access string) {
	if m.ttl <= 0 {
		return
	}
	exp, ok := m.store.(expirer)
	if !ok {
		return
	}

	deadline := time.Now().Add(m.ttl)
	if tokenExp, ok := security.TokenExpiry(access); ok && tokenExp.Before(deadline) {
		deadline = tokenExp
	}

	if err := exp.ExpireAt(ctx, sid, deadline); err != nil {
		m.log.Warn().Err(err).Str("sid", sid).Msg("session deadline stamp failed")
	}
}
