package password

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits    = "0123456789"
	special   = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

var ErrLengthTooShort = errors.New("password length must be at least 8 characters")

// GenerateSecurePassword returns a random password of exactly length
// characters containing at least one lowercase letter, one uppercase
// letter, one digit and one special character. The first four slots are
// seeded one per class and a Fisher-Yates shuffle removes any positional
// pattern. Randomness comes from crypto/rand throughout; generated
// passwords are handed to administrative accounts.
func GenerateSecurePassword(length int) (string, error) {
	if length < MinLength {
		return "", ErrLengthTooShort
	}
	all := lowercase + uppercase + digits + special

	buf := make([]byte, 0, length)
	for _, class := range []string{lowercase, uppercase, digits, special} {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for i := 4; i < length; i++ {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	if err := shuffle(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// GenerateTemporaryPassword is the 12-character variant handed to
// admin-created counselor accounts.
func GenerateTemporaryPassword() (string, error) { return GenerateSecurePassword(12) }

// GenerateStrongPassword is the 16-character variant.
func GenerateStrongPassword() (string, error) { return GenerateSecurePassword(16) }

func randomChar(chars string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
	if err != nil {
		return 0, err
	}
	return chars[n.Int64()], nil
}

func shuffle(buf []byte) error {
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}
	return nil
}
