// Package crypto provides key generation and hashing utilities for DeveHub.
package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// Character sets for key generation
const (
	// secretChars contains characters used in project secrets (lowercase alphanumeric).
	secretChars = "abcdefghijklmnopqrstuvwxyz0123456789"

	// SecretPrefix starts every project integration secret.
	SecretPrefix = "sk_live_dh_"

	// secretRandomLength is the length of the random secret segment.
	secretRandomLength = 9

	// keyNumberSpace bounds the numeric segment of a license key.
	keyNumberSpace = 10000
)

// GenerateLicenseNumber returns a random number in [0, 10000) for the
// numeric segment of a license key.
func GenerateLicenseNumber() (int, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return int(binary.BigEndian.Uint64(b[:]) % keyNumberSpace), nil
}

// GenerateProjectSecret returns a secret of the form
// sk_live_dh_<9 random chars>_<unix seconds>.
// Example: "sk_live_dh_k3j9x0a2m_1760529600"
func GenerateProjectSecret(now time.Time) (string, error) {
	random, err := generateRandomString(secretRandomLength, secretChars)
	if err != nil {
		return "", fmt.Errorf("failed to generate project secret: %w", err)
	}
	return fmt.Sprintf("%s%s_%d", SecretPrefix, random, now.Unix()), nil
}

// generateRandomString generates a random string of the specified length
// using characters from the provided character set.
func generateRandomString(length int, charset string) (string, error) {
	result := make([]byte, length)
	charsetLen := len(charset)

	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	for i := 0; i < length; i++ {
		result[i] = charset[int(randomBytes[i])%charsetLen]
	}

	return string(result), nil
}
