package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeys(t *testing.T) *Keys {
	t.Helper()
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	k, err := NewKeys(pk, nil)
	require.NoError(t, err)
	return k
}

func TestTokenRoundTrip(t *testing.T) {
	k := newTestKeys(t)
	token, err := k.GenerateToken(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{RoleUser, RoleAdmin},
	})
	require.NoError(t, err)

	c, err := k.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", c.Subject)
	assert.True(t, c.IsAdmin())
}

func TestValidateTokenRejects(t *testing.T) {
	k := newTestKeys(t)
	other := newTestKeys(t)

	expired, err := k.GenerateToken(Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})
	require.NoError(t, err)
	foreign, err := other.GenerateToken(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}})
	require.NoError(t, err)
	noSubject, err := k.GenerateToken(Claims{Roles: []string{RoleUser}})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":    expired,
		"foreign":    foreign,
		"no subject": noSubject,
		"garbage":    "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := k.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}

func TestGenerateTokenNeedsPrivateKey(t *testing.T) {
	k := newTestKeys(t)
	verifyOnly, err := NewKeys(nil, k.publicKey)
	require.NoError(t, err)
	_, err = verifyOnly.GenerateToken(Claims{})
	assert.Error(t, err)

	_, err = NewKeys(nil, nil)
	assert.Error(t, err)
}
