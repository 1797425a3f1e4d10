package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// TokenExpiry reads the exp claim without verifying the signature. The
// server verifies; the client only uses this to avoid a request that is
// bound to fail. ok is false when the token carries no readable expiry.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	date, err := claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// TokenExpired reports whether token has a readable expiry in the past.
func TokenExpired(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	return ok && !now.Before(exp)
}
