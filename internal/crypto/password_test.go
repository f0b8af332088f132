package crypto_test

import (
	"strings"
	"testing"

	"github.com/atinyakov/BurnLink/internal/crypto"
)

func TestGeneratePassword_Length(t *testing.T) {
	pw, err := crypto.GeneratePassword(32, crypto.DefaultPasswordOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pw) != 32 {
		t.Errorf("len = %d; want 32", len(pw))
	}
}

func TestGeneratePassword_DigitsOnly(t *testing.T) {
	pw, err := crypto.GeneratePassword(64, crypto.PasswordOptions{Digits: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range pw {
		if c < '0' || c > '9' {
			t.Fatalf("password %q contains non-digit %q", pw, c)
		}
	}
}

func TestGeneratePassword_ExcludesAmbiguous(t *testing.T) {
	pw, err := crypto.GeneratePassword(256, crypto.PasswordOptions{
		Upper: true, Lower: true, Digits: true, ExcludeAmbiguous: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range "0O1lI" {
		if strings.ContainsRune(pw, c) {
			t.Errorf("password contains ambiguous glyph %q", c)
		}
	}
}

func TestGeneratePassword_EmptyCharset(t *testing.T) {
	if _, err := crypto.GeneratePassword(10, crypto.PasswordOptions{}); err == nil {
		t.Fatal("expected error for empty charset")
	}
}

func TestGeneratePassword_BadLength(t *testing.T) {
	if _, err := crypto.GeneratePassword(0, crypto.DefaultPasswordOptions()); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestGeneratePassword_Varies(t *testing.T) {
	a, err := crypto.GeneratePassword(20, crypto.DefaultPasswordOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := crypto.GeneratePassword(20, crypto.DefaultPasswordOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Error("two generated passwords are identical")
	}
}
