package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// KeyPrefix starts every generated API key.
const KeyPrefix = "bp_"

// ErrInvalidKey is returned when the provided API key does not match the configured hash.
var ErrInvalidKey = errors.New("invalid API key")

// GenerateKey creates a new API key and its bcrypt hash. The raw key is:
// 32 random bytes -> base64url -> prepend "bp_".
func GenerateKey(bcryptCost int) (rawKey, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = KeyPrefix + base64.RawURLEncoding.EncodeToString(b)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcryptCost)
	if err != nil {
		return "", "", fmt.Errorf("hashing key: %w", err)
	}

	return rawKey, string(hashBytes), nil
}

// Service verifies the write API key against a bcrypt hash.
type Service struct {
	keyHash []byte
}

// NewService creates a new auth Service. An empty keyHash disables
// authentication: Enabled reports false and callers skip the check.
func NewService(keyHash string) *Service {
	return &Service{keyHash: []byte(keyHash)}
}

// Enabled reports whether a key hash is configured.
func (s *Service) Enabled() bool {
	return len(s.keyHash) > 0
}

// Authenticate checks rawKey against the configured hash.
func (s *Service) Authenticate(rawKey string) error {
	if !s.Enabled() || rawKey == "" {
		return ErrInvalidKey
	}

	err := bcrypt.CompareHashAndPassword(s.keyHash, []byte(rawKey))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidKey
	}
	return fmt.Errorf("comparing API key: %w", err)
}
