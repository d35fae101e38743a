package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestGenerateAPIKey(t *testing.T) {
	u := &User{}
	key, err := u.GenerateAPIKey()
	require.NoError(t, err)
	assert.Len(t, key, 48, "24 random bytes hex encoded")
	assert.Equal(t, HashAPIKey(key), u.APIKeyHash)
	assert.NotEqual(t, key, u.APIKeyHash, "plaintext key is never stored")

	second, err := u.GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, second)
}

func TestNewDeviceHash(t *testing.T) {
	a := NewDeviceHash()
	b := NewDeviceHash()
	assert.Len(t, a, 32)
	assert.NotContains(t, a, "-")
	assert.NotEqual(t, a, b)
}
