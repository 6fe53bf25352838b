// Package hasher provides password digest implementations.
package hasher

import (
	"fmt"

	"github.com/artpar/blogapi/ports"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt digests passwords with bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. Out-of-range costs fall back to
// bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Digest returns the bcrypt digest of plaintext.
func (h *Bcrypt) Digest(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(digest), nil
}

// Matches reports whether plaintext hashes to digest.
func (h *Bcrypt) Matches(digest, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

var _ ports.Hasher = (*Bcrypt)(nil)

// Plain stores plaintext with a marker prefix. Tests only.
type Plain struct{}

func (Plain) Digest(plaintext string) (string, error) {
	return "plain:" + plaintext, nil
}

func (Plain) Matches(digest, plaintext string) bool {
	return digest == "plain:"+plaintext
}

var _ ports.Hasher = Plain{}
