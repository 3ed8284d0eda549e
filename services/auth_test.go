package services

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureToken(t *testing.T) {
	svc := NewAuthService(nil, "test-secret")

	token, err := svc.generateSecureToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)

	other, err := svc.generateSecureToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestHashToken(t *testing.T) {
	svc := NewAuthService(nil, "test-secret")

	hash := svc.hashToken("some-token")
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, svc.hashToken("some-token"))
	assert.NotEqual(t, hash, svc.hashToken("other-token"))
}

func TestGenerateAccessTokenClaims(t *testing.T) {
	svc := NewAuthService(nil, "test-secret")
	user := &models.User{
		ID:    "user-1",
		Email: "test@example.com",
		Role:  "user",
	}

	signed, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims := &CookieClaims{}
	parsed, err := jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
}

func TestGenerateAccessTokenRejectsWrongSecret(t *testing.T) {
	svc := NewAuthService(nil, "test-secret")
	user := &models.User{ID: "user-1", Email: "test@example.com"}

	signed, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(signed, &CookieClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	})
	assert.Error(t, err)
}
