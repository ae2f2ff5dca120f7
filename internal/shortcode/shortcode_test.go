package shortcode_test

import (
	"testing"

	"shortlink/internal/shortcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerate checks length range and alphabet of generated codes.
func TestGenerate(t *testing.T) {
	seenLengths := make(map[int]bool)

	for i := 0; i < 500; i++ {
		code, err := shortcode.Generate()
		require.NoError(t, err)

		assert.GreaterOrEqual(t, len(code), 6)
		assert.LessOrEqual(t, len(code), 8)
		assert.Regexp(t, `^[A-Za-z0-9]+$`, code)
		assert.True(t, shortcode.Validate(code), "generated code must validate: %s", code)

		seenLengths[len(code)] = true
	}

	// 500 draws over 3 lengths, all three should show up
	assert.Len(t, seenLengths, 3)
}

// TestGenerate_Uniqueness checks that collisions are not the common case.
func TestGenerate_Uniqueness(t *testing.T) {
	codes := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := shortcode.Generate()
		require.NoError(t, err)
		assert.False(t, codes[code], "unexpected duplicate code: %s", code)
		codes[code] = true
	}
}

// TestValidate covers the accepted pattern and its boundaries.
func TestValidate(t *testing.T) {
	valid := []string{"abc123", "ABCDEF", "a1B2c3D4", "0000000", "airocks7"}
	for _, code := range valid {
		assert.True(t, shortcode.Validate(code), "should be valid: %q", code)
	}

	invalid := []string{
		"",
		"abc12",      // too short
		"abc123456",  // too long
		"invalid!",   // bad character
		"abc 12",     // whitespace
		"abc-12",     // hyphen not in alphabet
		"тест12",     // non-ASCII
	}
	for _, code := range invalid {
		assert.False(t, shortcode.Validate(code), "should be invalid: %q", code)
	}
}
