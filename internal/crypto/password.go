package crypto

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{}<>?"

	// Glyphs that are easy to confuse when a password is read aloud or
	// copied by hand.
	ambiguousChars = "0O1lI5S8B2Z"
)

// ErrEmptyCharset is returned when the requested option set leaves no
// characters to draw from.
var ErrEmptyCharset = errors.New("password character set is empty")

// PasswordOptions selects the character classes a generated password is
// drawn from.
type PasswordOptions struct {
	Upper   bool
	Lower   bool
	Digits  bool
	Symbols bool
	// ExcludeAmbiguous drops visually confusable glyphs (0/O, 1/l/I, ...).
	ExcludeAmbiguous bool
}

// DefaultPasswordOptions enables all classes with ambiguous glyphs excluded.
func DefaultPasswordOptions() PasswordOptions {
	return PasswordOptions{Upper: true, Lower: true, Digits: true, Symbols: true, ExcludeAmbiguous: true}
}

// GeneratePassword returns a random password of the given length drawn
// uniformly from the union of the selected character classes.
func GeneratePassword(length int, opts PasswordOptions) (string, error) {
	if length < 1 {
		return "", errors.New("password length must be at least 1")
	}

	var charset strings.Builder
	if opts.Upper {
		charset.WriteString(upperChars)
	}
	if opts.Lower {
		charset.WriteString(lowerChars)
	}
	if opts.Digits {
		charset.WriteString(digitChars)
	}
	if opts.Symbols {
		charset.WriteString(symbolChars)
	}

	chars := charset.String()
	if opts.ExcludeAmbiguous {
		var kept strings.Builder
		for _, c := range chars {
			if !strings.ContainsRune(ambiguousChars, c) {
				kept.WriteRune(c)
			}
		}
		chars = kept.String()
	}
	if chars == "" {
		return "", ErrEmptyCharset
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(chars)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = chars[n.Int64()]
	}
	return string(out), nil
}
