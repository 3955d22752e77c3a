package guard

import (
	"net/url"
	"sync"

	"evermedia/gateway/internal/roles"
	"evermedia/gateway/internal/session"
)

type Action int

const (
	// ActionAllow renders the protected target.
	ActionAllow Action = iota
	// ActionRedirectLogin sends the caller to the login page with the
	// original path encoded as the return target.
	ActionRedirectLogin
	// ActionRedirectHome sends an authenticated caller with the wrong role
	// to their own landing page, or to the unauthorized page when the role is
	// unrecognized.
	ActionRedirectHome
)

type Decision struct {
	Action Action
	Target string
	// Notice is a one-shot advisory message. Empty on repeat evaluations of
	// the same guard instance so redirect loops do not spam the user.
	Notice string
}

type noticeKey struct {
	sid    string
	action Action
}

// Guard evaluates access to one protected route. The decision itself is a
// pure function of the session, the permitted roles and the requested path;
// the guard instance only tracks which notices each caller has already seen.
type Guard struct {
	required []roles.Role

	mu          sync.Mutex
	noticeShown map[noticeKey]bool
}

// New builds a guard for a route. An empty required set means any
// authenticated role is allowed.
func New(required ...roles.Role) *Guard {
	return &Guard{
		required:    required,
		noticeShown: make(map[noticeKey]bool),
	}
}

func (g *Guard) Evaluate(sid string, sess session.Session, path string) Decision {
	if !sess.Authenticated() {
		return Decision{
			Action: ActionRedirectLogin,
			Target: roles.LoginPath + "?next=" + url.QueryEscape(path),
			Notice: g.once(sid, ActionRedirectLogin, "Please log in to continue."),
		}
	}

	if len(g.required) > 0 && !g.permitted(sess.Role) {
		target := roles.UnauthorizedPath
		if sess.Role.Known() {
			target = roles.Home(sess.Role)
		}
		return Decision{
			Action: ActionRedirectHome,
			Target: target,
			Notice: g.once(sid, ActionRedirectHome, "You do not have access to that page."),
		}
	}

	return Decision{Action: ActionAllow}
}

func (g *Guard) permitted(role roles.Role) bool {
	for _, r := range g.required {
		if r == role {
			return true
		}
	}
	return false
}

// Reset forgets a caller's notice history, so their next denial warns again.
// Called when the session ends; also keeps the map from accumulating dead
// session ids.
func (g *Guard) Reset(sid string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.noticeShown, noticeKey{sid: sid, action: ActionRedirectLogin})
	delete(g.noticeShown, noticeKey{sid: sid, action: ActionRedirectHome})
}

func (g *Guard) once(sid string, action Action, notice string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := noticeKey{sid: sid, action: action}
	if g.noticeShown[key] {
		return ""
	}
	g.noticeShown[key] = true
	return notice
}
