package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HasuraNamespace is the claim holding the platform's Hasura session variables.
const HasuraNamespace = "https://hasura.io/jwt/claims"

// HasuraClaims are the session variables the GraphQL engine reads.
type HasuraClaims struct {
	UserID       string   `json:"x-hasura-user-id"`
	DefaultRole  string   `json:"x-hasura-default-role"`
	AllowedRoles []string `json:"x-hasura-allowed-roles"`
}

// Claims represents the platform JWT claims used by this service.
type Claims struct {
	Hasura HasuraClaims `json:"https://hasura.io/jwt/claims"`
	jwt.RegisteredClaims
}

// UserID returns the platform user id: the subject, else the Hasura user id.
func (c *Claims) UserID() string {
	if c == nil {
		return ""
	}
	if c.Subject != "" {
		return c.Subject
	}
	return c.Hasura.UserID
}

// NumericUserID returns UserID as an integer when it is one.
func (c *Claims) NumericUserID() (int64, bool) {
	id, err := strconv.ParseInt(c.UserID(), 10, 64)
	return id, err == nil
}

// ExpiresAtTime returns the expiry, or the zero time when the token has none.
func (c *Claims) ExpiresAtTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ParseClaims decodes a platform JWT without verifying its signature. The
// platform owns the signing secret and verifies every request it receives;
// this service only reads identity and expiry.
func ParseClaims(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("auth: empty token")
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.UserID() == "" {
		return nil, errors.New("auth: missing user id")
	}
	return claims, nil
}

// IsExpired reports whether claims have expired at now.
func IsExpired(claims *Claims, now time.Time) bool {
	exp := claims.ExpiresAtTime()
	return !exp.IsZero() && !now.Before(exp)
}
