package tokenstore

import "context"

const (
	KeyAccess   = "access"
	KeyRefresh  = "refresh"
	KeyRole     = "role"
	KeyUsername = "username"

	// Legacy blob written by the old password-reset flow. Never read here,
	// but Clear must remove it.
	KeyAuthData = "authData"
)

// KnownKeys is every key Clear removes for a namespace.
var KnownKeys = []string{KeyAccess, KeyRefresh, KeyRole, KeyUsername, KeyAuthData}

// Store is a blind key-value mirror of session credentials, namespaced by
// gateway session id. It performs no validation of the stored values.
type Store interface {
	Get(ctx context.Context, sid string, key string) (string, error)
	Set(ctx context.Context, sid string, key string, value string) error
	Remove(ctx context.Context, sid string, key string) error
	Clear(ctx context.Context, sid string) error
}

// Missing reports whether a stored value should be treated as absent.
// Historical clients persisted the literal strings "null" and "undefined".
func Missing(value string) bool {
	switch value {
	case "", "null", "undefined":
		return true
	}
	return false
}
