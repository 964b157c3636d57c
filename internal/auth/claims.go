package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"parentportal/cli/internal/backend"
)

// Claims are the registered claims read from a session token.
// They are informational only: the signature is not checked on the client,
// the backend remains the authority on validity.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ParseClaims decodes token as a JWT without verifying it. ok is false for
// opaque tokens.
func ParseClaims(token string) (Claims, bool) {
	rc := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, rc); err != nil {
		return Claims{}, false
	}
	c := Claims{Subject: rc.Subject}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, true
}

// withClaims fills a missing profile id from the token's subject.
func withClaims(u backend.UserProfile, token string) backend.UserProfile {
	if u.ID != "" {
		return u
	}
	if c, ok := ParseClaims(token); ok && c.Subject != "" {
		u.ID = c.Subject
	}
	return u
}
