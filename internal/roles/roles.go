package roles

import "strings"

// Role is the normalized account role. Raw role strings from the backend are
// resolved exactly once, at session creation, and every other layer consumes
// the resolved value.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleWorker  Role = "worker"
	RoleUser    Role = "user"
	RoleVendor  Role = "vendor"
	RolePartner Role = "partner"
	RoleUnknown Role = ""
)

var known = map[Role]struct{}{
	RoleAdmin:   {},
	RoleWorker:  {},
	RoleUser:    {},
	RoleVendor:  {},
	RolePartner: {},
}

// Parse normalizes a raw role string to a Role. Anything outside the closed
// set maps to RoleUnknown.
func Parse(raw string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := known[r]; ok {
		return r
	}
	return RoleUnknown
}

func (r Role) Known() bool {
	_, ok := known[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

const (
	DefaultHome      = "/"
	UnauthorizedPath = "/unauthorized"
	LoginPath        = "/login"
)

// Vendor and partner accounts share a combined dashboard.
var homes = map[Role]string{
	RoleAdmin:   "/admin",
	RoleWorker:  "/worker-dashboard",
	RoleUser:    "/user",
	RoleVendor:  "/partner-vendor-dashboard",
	RolePartner: "/partner-vendor-dashboard",
}

// Home returns the landing path for a role, falling back to DefaultHome for
// unrecognized roles. Consulted after login and on guard role mismatch.
func Home(r Role) string {
	if path, ok := homes[r]; ok {
		return path
	}
	return DefaultHome
}
