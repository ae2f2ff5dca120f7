// Package shortcode generates and validates short link codes.
package shortcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	alphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	minLength = 6
	maxLength = 8
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{6,8}$`)

// Generate returns a random alphanumeric code of 6 to 8 characters, length
// chosen uniformly. Codes come from crypto/rand; uniqueness is the caller's
// responsibility.
func Generate() (string, error) {
	span, err := rand.Int(rand.Reader, big.NewInt(maxLength-minLength+1))
	if err != nil {
		return "", fmt.Errorf("failed to pick code length: %w", err)
	}
	length := minLength + int(span.Int64())

	code := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		code[i] = alphabet[n.Int64()]
	}

	return string(code), nil
}

// Validate reports whether s is a well-formed code: 6 to 8 characters, all
// alphanumeric.
func Validate(s string) bool {
	return codePattern.MatchString(s)
}
