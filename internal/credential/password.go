// Package credential hashes and verifies account passwords.
//
// Stored values have the form hex(salt) + "$" + hex(key), where key is
// PBKDF2-HMAC-SHA256 over the password with 100,000 iterations.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	Iterations = 100_000
	saltSize   = 16
	keySize    = 32
)

// Hash derives a salted key for password and encodes it for storage.
func Hash(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := derive(password, salt)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(key), nil
}

// Verify reports whether password matches the stored value. The key is always
// re-derived at keySize bytes, so a stored key of another length never matches.
// Malformed stored values never match.
func Verify(password, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	// ConstantTimeCompare returns 0 on length mismatch.
	return subtle.ConstantTimeCompare(derive(password, salt), expected) == 1
}

func derive(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, keySize, sha256.New)
}
