package dataverse

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"aud": "https://org.crm.dynamics.com",
		"exp": exp.Unix(),
	})
	raw, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return raw
}

func TestStaticToken_Valid(t *testing.T) {
	raw := signedToken(t, time.Now().Add(time.Hour))
	got, err := NewStaticToken(raw).Token(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestStaticToken_Expired(t *testing.T) {
	raw := signedToken(t, time.Now().Add(-time.Hour))
	_, err := NewStaticToken(raw).Token(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestStaticToken_OpaquePassthrough(t *testing.T) {
	// Tokens that are not JWTs are handed through untouched; some
	// gateways issue opaque tokens.
	got, err := NewStaticToken("not-a-jwt").Token(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "not-a-jwt", got)
}
