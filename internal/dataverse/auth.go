package dataverse

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned when a static bearer token's exp claim
// has passed.
var ErrTokenExpired = errors.New("access token is expired")

// StaticToken is a TokenProvider for a pre-acquired bearer token (the
// host is responsible for interactive/device-code auth).
type StaticToken struct {
	raw string
	// now is swapped out in tests.
	now func() time.Time
}

// NewStaticToken wraps a raw bearer token.
func NewStaticToken(raw string) *StaticToken {
	return &StaticToken{raw: raw, now: time.Now}
}

// Token returns the wrapped token after checking its expiry claim.
// Only the exp claim is inspected; signatures are not verified. Tokens
// that do not parse as JWTs are passed through untouched.
func (t *StaticToken) Token(ctx context.Context) (string, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(t.raw, claims); err != nil {
		return t.raw, nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return t.raw, nil
	}
	if exp.Before(t.now()) {
		return "", ErrTokenExpired
	}
	return t.raw, nil
}
