package session

import (
	"context"

	"evermedia/gateway/internal/roles"
)

// Session is the materialized state for one gateway session id. Access and
// refresh are either both set or both empty; Role is only meaningful while
// Access is set.
type Session struct {
	Access   string
	Refresh  string
	Role     roles.Role
	Username string
}

func (s Session) Authenticated() bool {
	return s.Access != ""
}

// Credentials is the full field set required to enter the authenticated
// state.
type Credentials struct {
	Access   string
	Refresh  string
	Role     roles.Role
	Username string
}

// Partial is a merge payload for Update. Nil fields are left untouched.
type Partial struct {
	Access   *string
	Refresh  *string
	Role     *roles.Role
	Username *string
}

type ctxKey struct{}

// WithSID attaches a gateway session id to a context so the upstream
// transport can resolve the caller's credentials.
func WithSID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxKey{}, sid)
}

// SIDFromContext returns the gateway session id carried by ctx, if any.
func SIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(ctxKey{}).(string)
	return sid, ok && sid != ""
}
