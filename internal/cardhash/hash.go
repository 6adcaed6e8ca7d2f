package cardhash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher produces an irreversible digest of a sensitive card field.
type Hasher interface {
	Hash(value string) (string, error)
}

// Bcrypt hashes with a random per-value salt, so equal inputs produce different digests.
// Do not log the input; callers must mask card data separately.
type Bcrypt struct {
	Cost int
}

func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{Cost: cost}
}

func (b *Bcrypt) Hash(value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("nothing to hash")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(value), b.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(h), nil
}

// Verify reports whether hash was produced from value.
func Verify(hash, value string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(value)) == nil
}
