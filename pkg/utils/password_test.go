package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret-password")
	require.NoError(t, err)

	parts := strings.Split(hashed, ".")
	require.Len(t, parts, 2, "hash should be salt.hash")

	require.NoError(t, VerifyPassword("s3cret-password", hashed))
	assert.Error(t, VerifyPassword("wrong-password", hashed))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	require.Error(t, err)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{name: "no separator", hash: "abcdef"},
		{name: "too many parts", hash: "a.b.c"},
		{name: "invalid base64 salt", hash: "!!!.aGFzaA=="},
		{name: "invalid base64 hash", hash: "c2FsdA==.!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, VerifyPassword("whatever", tt.hash))
		})
	}
}
