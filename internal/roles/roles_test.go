package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Role
	}{
		{name: "admin", raw: "admin", want: RoleAdmin},
		{name: "worker", raw: "worker", want: RoleWorker},
		{name: "mixed case", raw: "Admin", want: RoleAdmin},
		{name: "surrounding whitespace", raw: "  vendor ", want: RoleVendor},
		{name: "unrecognized", raw: "superuser", want: RoleUnknown},
		{name: "empty", raw: "", want: RoleUnknown},
		{name: "null sentinel is not a role", raw: "null", want: RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestHome(t *testing.T) {
	assert.Equal(t, "/admin", Home(RoleAdmin))
	assert.Equal(t, "/worker-dashboard", Home(RoleWorker))
	assert.Equal(t, "/user", Home(RoleUser))

	// Vendor and partner share a dashboard.
	assert.Equal(t, Home(RoleVendor), Home(RolePartner))

	// Total mapping: unknown roles land on the default home.
	assert.Equal(t, DefaultHome, Home(RoleUnknown))
	assert.Equal(t, DefaultHome, Home(Role("ghost")))
}

func TestKnown(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleWorker, RoleUser, RoleVendor, RolePartner} {
		assert.True(t, r.Known(), r.String())
	}
	assert.False(t, RoleUnknown.Known())
}
