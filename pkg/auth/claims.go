package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims is the bearer token presented by callers. The subject
// identifies the owner of uploaded items.
type AccessTokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// OwnerID returns the trimmed subject claim.
func (c *AccessTokenClaims) OwnerID() string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Subject)
}
