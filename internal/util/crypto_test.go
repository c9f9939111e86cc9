package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoRandomBytes(t *testing.T) {
	t.Run("Generate correct length", func(t *testing.T) {
		bytes, err := CryptoRandomBytes(20)
		require.NoError(t, err)
		assert.Len(t, bytes, 20)
	})

	t.Run("Generate unique values", func(t *testing.T) {
		bytes1 := MustRandomBytes(20)
		bytes2 := MustRandomBytes(20)
		assert.NotEqual(t, bytes1, bytes2, "Random bytes should not be identical")
	})
}

func TestTokenHasher(t *testing.T) {
	hasher := NewTokenHasher("server-secret")

	t.Run("Known vector", func(t *testing.T) {
		assert.Equal(
			t,
			"f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8",
			NewTokenHasher("key").Hash("The quick brown fox jumps over the lazy dog"),
		)
	})

	t.Run("Round trip", func(t *testing.T) {
		raw := GenerateRefreshTokenValue()
		stored := hasher.Hash(raw)

		assert.Len(t, stored, 64)
		assert.Equal(t, stored, hasher.Hash(raw))
		assert.NotEqual(t, stored, hasher.Hash(GenerateRefreshTokenValue()))
	})

	t.Run("Key changes the digest", func(t *testing.T) {
		other := NewTokenHasher("another-secret")
		assert.NotEqual(t, hasher.Hash("value"), other.Hash("value"))
	})
}
