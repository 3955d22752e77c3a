package upstream

// Upstream endpoints consumed directly by the gateway. Everything else is
// reached through the resource proxy as an opaque URL template.
const (
	EndpointToken        = "accounts/token/"
	EndpointTokenRefresh = "accounts/token/refresh/"
	EndpointOAuthGoogle  = "accounts/oauth/google/"
	EndpointLogout       = "accounts/logout/"
	EndpointProfile      = "accounts/profile/"
	EndpointHealth       = "health/"
)

// Resources the proxy will forward. The backend organizes its REST surface by
// these top-level prefixes.
var proxyResources = map[string]struct{}{
	"accounts":   {},
	"bookings":   {},
	"media":      {},
	"videos":     {},
	"reviews":    {},
	"promotions": {},
	"newsletter": {},
	"invoices":   {},
	"messaging":  {},
	"analytics":  {},
}

func ProxyAllowed(resource string) bool {
	_, ok := proxyResources[resource]
	return ok
}
