package util

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// userCodeLetters excludes I and O
	userCodeLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	// userCodeDigits excludes 0
	userCodeDigits = "123456789"

	userCodeGroupLen  = 4
	userCodeSeparator = "-"

	refreshTokenBytes = 32
)

// GenerateUserCode returns a code like "ABCD-1234" for a person to type in.
// It is short on purpose; its protection is the TTL and rate limiting.
func GenerateUserCode() string {
	var b strings.Builder
	b.Grow(userCodeGroupLen*2 + len(userCodeSeparator))
	for range userCodeGroupLen {
		b.WriteByte(pick(userCodeLetters))
	}
	b.WriteString(userCodeSeparator)
	for range userCodeGroupLen {
		b.WriteByte(pick(userCodeDigits))
	}
	return b.String()
}

// GenerateDeviceCode returns an opaque identifier for the polling client.
// A version 4 UUID carries 122 random bits.
func GenerateDeviceCode() string {
	id, err := uuid.NewRandom()
	if err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return id.String()
}

// GenerateRefreshTokenValue returns 256 random bits, base64url encoded.
func GenerateRefreshTokenValue() string {
	return base64.RawURLEncoding.EncodeToString(MustRandomBytes(refreshTokenBytes))
}

// NormalizeUserCode uppercases the input, drops whitespace and separators,
// and re-inserts the dash so "abcd 1234" and "ABCD1234" both match "ABCD-1234".
func NormalizeUserCode(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	compact := b.String()
	if len(compact) != userCodeGroupLen*2 {
		return compact
	}
	return compact[:userCodeGroupLen] + userCodeSeparator + compact[userCodeGroupLen:]
}

// IsValidUserCode reports whether code is a normalized user code drawn from
// the allowed alphabets.
func IsValidUserCode(code string) bool {
	if len(code) != userCodeGroupLen*2+len(userCodeSeparator) {
		return false
	}
	if code[userCodeGroupLen:userCodeGroupLen+len(userCodeSeparator)] != userCodeSeparator {
		return false
	}
	for i := range userCodeGroupLen {
		if !strings.ContainsRune(userCodeLetters, rune(code[i])) {
			return false
		}
		if !strings.ContainsRune(userCodeDigits, rune(code[userCodeGroupLen+1+i])) {
			return false
		}
	}
	return true
}

func pick(alphabet string) byte {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return alphabet[n.Int64()]
}
