package auth

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// hashCost matches the original deployment setting
const hashCost = 12

// Bcrypt password hasher
// Will be used as default one if caller not provide it's own
// Passwords are pre-hashed with sha256 to sidestep bcrypt's 72 byte limit
type BcryptHasher struct{}

func (h BcryptHasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], hashCost)
	return string(hash), err
}

func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	sum := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])
}
