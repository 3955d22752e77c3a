package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the subset of upstream access-token claims the gateway
// cares about. The gateway does not hold the backend signing secret, so
// claims are read unverified and used only as hints: the authoritative role
// and username come from the login payload.
type AccessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// InspectAccessToken decodes claims without signature verification.
func InspectAccessToken(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}
	return claims, nil
}

// TokenExpiry returns the exp claim of a token, if it decodes and carries
// one.
func TokenExpiry(tokenStr string) (time.Time, bool) {
	claims, err := InspectAccessToken(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
