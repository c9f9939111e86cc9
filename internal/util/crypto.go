package util

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CryptoRandomBytes generates cryptographically secure random bytes
func CryptoRandomBytes(length int64) ([]byte, error) {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	return buf, err
}

// MustRandomBytes is CryptoRandomBytes for callers that cannot continue
// without entropy. A failing system random source is a fatal process error.
func MustRandomBytes(length int64) []byte {
	buf, err := CryptoRandomBytes(length)
	if err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return buf
}

// TokenHasher derives the stored lookup key for high-entropy secrets
// (refresh tokens, device codes) using a server-held key.
type TokenHasher struct {
	key []byte
}

// NewTokenHasher returns a hasher keyed with secret.
func NewTokenHasher(secret string) *TokenHasher {
	return &TokenHasher{key: []byte(secret)}
}

// Hash returns hex(HMAC-SHA256(key, raw)).
func (h *TokenHasher) Hash(raw string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
