package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := SignToken(42, "jane", "jane@example.com", "user", "plus")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	token, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(42), claims["uid"])
	assert.Equal(t, "jane", claims["user"])
	assert.Equal(t, "jane@example.com", claims["email"])
	assert.Equal(t, "user", claims["role"])
	assert.Equal(t, "plus", claims["tier"])
	assert.NotNil(t, claims["exp"])
}

func TestSignToken_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := SignToken(1, "jane", "jane@example.com", "user", "free")
	require.Error(t, err)
}

func TestSignToken_WrongSecretFailsParse(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := SignToken(1, "jane", "jane@example.com", "user", "free")
	require.NoError(t, err)

	_, err = jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return []byte("another-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	assert.Error(t, err)
}
