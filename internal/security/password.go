package security

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies account passwords with bcrypt
type Hasher struct {
	cost int
}

// NewHasher creates a hasher; out-of-range costs fall back to bcrypt.DefaultCost
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// HashPassword returns a salted bcrypt hash of password
func (h *Hasher) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash
func (h *Hasher) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var defaultHasher = NewHasher(bcrypt.DefaultCost)

// HashPassword hashes with the default cost
func HashPassword(password string) (string, error) {
	return defaultHasher.HashPassword(password)
}

// CheckPassword verifies against a hash of any cost
func CheckPassword(password, hash string) bool {
	return defaultHasher.CheckPassword(password, hash)
}
