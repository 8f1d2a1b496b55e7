package password

import (
	"errors"
	"strings"
	"testing"
)

func classCounts(t *testing.T, pw string) (lower, upper, digit, spec int) {
	t.Helper()
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower++
		case r >= 'A' && r <= 'Z':
			upper++
		case r >= '0' && r <= '9':
			digit++
		default:
			if !strings.ContainsRune(special, r) {
				t.Fatalf("unexpected character %q in generated password", r)
			}
			spec++
		}
	}
	return
}

func TestGenerateSecurePasswordComposition(t *testing.T) {
	for _, length := range []int{8, 12, 16, 32} {
		// The shuffle is random; every run must still hold the invariant.
		for i := 0; i < 20; i++ {
			pw, err := GenerateSecurePassword(length)
			if err != nil {
				t.Fatalf("generate(%d): %v", length, err)
			}
			if len(pw) != length {
				t.Fatalf("expected length %d, got %d", length, len(pw))
			}
			lower, upper, digit, spec := classCounts(t, pw)
			if lower == 0 || upper == 0 || digit == 0 || spec == 0 {
				t.Fatalf("missing character class in %q (l=%d u=%d d=%d s=%d)", pw, lower, upper, digit, spec)
			}
		}
	}
}

func TestGenerateSecurePasswordTooShort(t *testing.T) {
	if _, err := GenerateSecurePassword(7); !errors.Is(err, ErrLengthTooShort) {
		t.Fatalf("expected ErrLengthTooShort, got %v", err)
	}
}

func TestGeneratedPasswordsPassStrengthValidation(t *testing.T) {
	pw, err := GenerateTemporaryPassword()
	if err != nil {
		t.Fatalf("generate temporary: %v", err)
	}
	if len(pw) != 12 {
		t.Fatalf("temporary password length: %d", len(pw))
	}
	if result := ValidateStrength(pw); !result.IsValid {
		t.Fatalf("generated password failed strength validation: %v", result.Errors)
	}

	pw, err = GenerateStrongPassword()
	if err != nil {
		t.Fatalf("generate strong: %v", err)
	}
	if len(pw) != 16 {
		t.Fatalf("strong password length: %d", len(pw))
	}
}

func TestGeneratedPasswordsDiffer(t *testing.T) {
	a, err := GenerateSecurePassword(16)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := GenerateSecurePassword(16)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if a == b {
		t.Fatalf("two generated passwords were identical")
	}
}
