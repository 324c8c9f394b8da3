package service

import (
	"github.com/suhashines/teamsync-backend/internal/middleware/auth"
)

// PasswordHasher abstracts credential digest creation and verification.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(plain, digest string) bool
}

type bcryptHasher struct{}

// NewBcryptHasher returns the bcrypt-backed PasswordHasher.
func NewBcryptHasher() PasswordHasher {
	return bcryptHasher{}
}

func (bcryptHasher) Hash(plain string) (string, error) {
	return auth.HashPassword(plain)
}

func (bcryptHasher) Matches(plain, digest string) bool {
	return auth.VerifyPassword(digest, plain) == nil
}
