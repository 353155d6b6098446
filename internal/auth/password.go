package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/evalia-ai/evalia/pkg/errors"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// HashPassword validates and hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", errors.NewValidationError("password", nil, "must be at least 8 characters")
	}
	// bcrypt ignores input past 72 bytes; refuse it instead of truncating silently.
	if len(password) > 72 {
		return "", errors.NewValidationError("password", nil, "must be at most 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.WrapResource("hash", "password", "", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
