// internal/services/password.go
package services

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/javajoker/license-backend/internal/utils"
)

const (
	PasswordSchemeBcrypt = "bcrypt"
	PasswordSchemeSHA256 = "sha256"
)

// PasswordHasher hashes new account passwords with the configured scheme
// and checks stored hashes of either scheme, so records written with
// plain SHA-256 keep working after switching to bcrypt.
//
// bcrypt only reads 72 bytes, so it is fed the hex SHA-256 digest of the
// password instead of the password itself.
type PasswordHasher struct {
	scheme string
	cost   int
	dummy  string
}

func NewPasswordHasher(scheme string, cost int) (*PasswordHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	p := &PasswordHasher{scheme: scheme, cost: cost}

	dummy, err := p.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, err
	}
	p.dummy = dummy
	return p, nil
}

func (p *PasswordHasher) Hash(password string) (string, error) {
	switch p.scheme {
	case PasswordSchemeBcrypt:
		hashed, err := bcrypt.GenerateFromPassword(prehash(password), p.cost)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		return string(hashed), nil
	case PasswordSchemeSHA256:
		return utils.HashString(password), nil
	default:
		return "", fmt.Errorf("unsupported password hash scheme %q", p.scheme)
	}
}

// Compare runs in constant time with respect to the stored hash.
func (p *PasswordHasher) Compare(hash, password string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), prehash(password)) == nil
	}
	return utils.CompareHash(password, hash)
}

// CompareMissing spends the same work as Compare for an unknown account.
func (p *PasswordHasher) CompareMissing(password string) {
	p.Compare(p.dummy, password)
}

func prehash(password string) []byte {
	return []byte(utils.HashString(password))
}
