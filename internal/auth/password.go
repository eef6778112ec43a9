package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
)

const bcryptCost = bcrypt.DefaultCost

// HashPassword returns an adaptive-cost salted hash for a plaintext
// password, matching secretstore's hashing primitive for consistency
// across the module.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
func VerifyPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// HashRefreshToken hashes an opaque refresh token for at-rest storage,
// the same way an OTP is hashed in internal/handover — the plaintext
// token is shown to the client exactly once, at issuance.
func HashRefreshToken(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to hash refresh token", err)
	}
	return string(hash), nil
}

// VerifyRefreshToken reports whether a submitted refresh token matches a
// stored hash.
func VerifyRefreshToken(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
