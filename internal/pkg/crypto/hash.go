package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrCodeMismatch indicates a verification code did not match its hash.
var ErrCodeMismatch = errors.New("verification code mismatch")

// HashCode hashes a verification code for storage in configuration.
func HashCode(code string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}
	return string(h), nil
}

// VerifyCode checks a code against a bcrypt hash.
func VerifyCode(hash, code string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return ErrCodeMismatch
	}
	return nil
}
