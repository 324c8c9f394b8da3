package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenGenerator produces opaque credential identifiers.
// Collision probability at 32 bytes of entropy is negligible, but callers still
// check the store before persisting so uniqueness is a hard guarantee.
type TokenGenerator interface {
	// gen a 32-byte random value and encode with URL-safe base64
	Generate() (string, error)
}

const tokenEntropyBytes = 32

type randomTokenGenerator struct{}

// NewTokenGenerator returns the crypto/rand backed generator.
func NewTokenGenerator() TokenGenerator {
	return randomTokenGenerator{}
}

func (randomTokenGenerator) Generate() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
