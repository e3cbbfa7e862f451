// internal/app/system/passwords/passwords.go

// Package passwords holds the bcrypt hashing helpers and the password
// complexity policy enforced at the request boundary.
package passwords

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Policy bounds.
const (
	MinLength = 8
	MaxLength = 255
)

// specials is the punctuation set a password must draw at least one
// character from.
const specials = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Hash returns the bcrypt hash of a plaintext password.
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plain matches the stored bcrypt hash.
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// CheckPolicy validates a candidate password against the complexity policy:
// 8-255 characters with at least one digit, one lowercase letter, one
// uppercase letter, and one special character. It returns one message per
// violated rule, empty when the password is acceptable.
func CheckPolicy(pw string) []string {
	var problems []string

	if len(pw) < MinLength {
		problems = append(problems, fmt.Sprintf("Password should have at least %d characters.", MinLength))
	}
	if len(pw) > MaxLength {
		problems = append(problems, fmt.Sprintf("Password should have at most %d characters.", MaxLength))
	}

	var hasDigit, hasLower, hasUpper, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case strings.ContainsRune(specials, r):
			hasSpecial = true
		}
	}

	if !hasDigit {
		problems = append(problems, "Password must contain at least one digit.")
	}
	if !hasLower {
		problems = append(problems, "Password must contain at least one lowercase letter.")
	}
	if !hasUpper {
		problems = append(problems, "Password must contain at least one uppercase letter.")
	}
	if !hasSpecial {
		problems = append(problems, "Password must contain at least one special character.")
	}

	return problems
}
