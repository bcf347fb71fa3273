package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndParseToken(t *testing.T) {
	svc, err := NewJWTService("test-secret-key", 1)
	require.NoError(t, err)

	token, err := svc.GenerateToken(42, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestJWTService_ParseToken_WrongSecret(t *testing.T) {
	issuer, err := NewJWTService("secret-one", 1)
	require.NoError(t, err)
	verifier, err := NewJWTService("secret-two", 1)
	require.NoError(t, err)

	token, err := issuer.GenerateToken(42, "")
	require.NoError(t, err)

	claims, err := verifier.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_ParseToken_Garbage(t *testing.T) {
	svc, err := NewJWTService("test-secret-key", 1)
	require.NoError(t, err)

	claims, err := svc.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestNewJWTService_EmptySecret(t *testing.T) {
	svc, err := NewJWTService("", 1)
	assert.Error(t, err)
	assert.Nil(t, svc)
}
