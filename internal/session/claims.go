package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims decodes the claims of a JWT without verifying its signature.
// The client never holds the signing secret; verification is the server's
// job. This is only used to read expiry and role for local decisions.
func TokenClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// TokenExpiresWithin reports whether the token's exp claim falls within d
// from now. Undecodable tokens or tokens without exp report true, so callers
// err on the side of refreshing.
func TokenExpiresWithin(token string, d time.Duration) bool {
	claims, err := TokenClaims(token)
	if err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Until(exp.Time) < d
}

// TokenRole returns the role claim, empty when absent.
func TokenRole(token string) string {
	claims, err := TokenClaims(token)
	if err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}
