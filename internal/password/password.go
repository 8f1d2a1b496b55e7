package password

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const MinLength = 8

// specialChars is the exact set the strength rule accepts. Spaces and
// characters outside it (including non-ASCII letters) do not count.
const specialChars = "!@#$%^&*()_+-=[]{};':\"\\|,.<>?"

var ErrEmptyPassword = errors.New("password must not be empty")

// Hasher wraps bcrypt with a configured cost factor.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash produces a salted bcrypt hash of plaintext. The returned string
// embeds the salt and cost, so verification needs no external state.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches storedHash. Malformed or empty
// hashes verify false, they never error: a caller cannot tell a bad hash
// apart from a wrong password.
func (h *Hasher) Verify(plaintext, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}

// Strength is the outcome of ValidateStrength. Errors lists every violated
// rule, not just the first.
type Strength struct {
	IsValid bool
	Errors  []string
}

// ValidateStrength checks composition rules independent of hashing:
// minimum length plus at least one lowercase, uppercase, digit and special
// character.
func ValidateStrength(plaintext string) Strength {
	var errs []string
	if len(plaintext) < MinLength {
		errs = append(errs, "Password must be at least 8 characters long")
	}
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range plaintext {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}
	if !hasLower {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !hasUpper {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !hasDigit {
		errs = append(errs, "Password must contain at least one number")
	}
	if !hasSpecial {
		errs = append(errs, "Password must contain at least one special character")
	}
	return Strength{IsValid: len(errs) == 0, Errors: errs}
}
