// Package crypto implements the client-side encryption engine: key
// generation, password-based key derivation, authenticated encryption, and
// envelope construction. Everything here is local and synchronous; no key or
// password ever leaves the process.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/atinyakov/BurnLink/internal/models"
)

const (
	// KeySize is the AEAD key length in bytes (AES-256).
	KeySize = 32
	// SaltSize is the derivation salt length in bytes.
	SaltSize = 32
	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12
	// KDFIterations is the PBKDF2-SHA256 iteration count. Deliberately slow
	// so brute-forcing a guessed password stays expensive.
	KDFIterations = 100_000
)

// ErrDecryptionFailed is returned for every decryption failure: wrong key,
// wrong password, or tampered/corrupted bytes. The cause is intentionally
// not distinguished.
var ErrDecryptionFailed = errors.New("decryption failed")

// keyEncoding maps raw keys to a URL-fragment-safe text form.
var keyEncoding = base64.RawURLEncoding

// GenerateKey returns a fresh random 256-bit AEAD key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

// DeriveKey derives an AEAD key from a password. If salt is nil a fresh
// random salt is generated; otherwise it must be exactly SaltSize bytes.
// The derivation is deterministic: the same password and salt always yield
// the same key.
func DeriveKey(password string, salt []byte) (key, usedSalt []byte, err error) {
	if salt == nil {
		salt = make([]byte, SaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, fmt.Errorf("generate salt: %w", err)
		}
	} else if len(salt) != SaltSize {
		return nil, nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	key = pbkdf2.Key([]byte(password), salt, KDFIterations, KeySize, sha256.New)
	return key, salt, nil
}

// newAEAD constructs an AES-256-GCM cipher from a raw key.
func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under key with a freshly generated random nonce
// and returns nonce || AEAD output. The nonce is never a caller-supplied
// parameter: regenerating it here on every call is what rules out nonce
// reuse under a shared key.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt splits nonce and body and opens the AEAD. All failures collapse
// into ErrDecryptionFailed so the caller cannot tell a wrong password from
// corrupted data.
func Decrypt(ciphertext, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, ErrDecryptionFailed
	}
	nonce, body := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// ExportKey encodes a raw key for embedding in a URL fragment.
func ExportKey(key []byte) string {
	return keyEncoding.EncodeToString(key)
}

// ImportKey reverses ExportKey. It rejects text that does not decode to a
// full-size key.
func ImportKey(s string) ([]byte, error) {
	key, err := keyEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("import key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("import key: got %d bytes, want %d", len(key), KeySize)
	}
	return key, nil
}

// SealWithKey encrypts plaintext under a caller-held key and wraps the
// result in a key-mode envelope. The key itself travels out-of-band.
func SealWithKey(plaintext, key []byte) (*models.Envelope, error) {
	ciphertext, err := Encrypt(plaintext, key)
	if err != nil {
		return nil, err
	}
	return &models.Envelope{Type: models.EnvelopeKey, Ciphertext: ciphertext}, nil
}

// SealWithPassword derives a key from the password with a fresh salt and
// wraps the encrypted plaintext in a password-mode envelope carrying the
// salt.
func SealWithPassword(plaintext []byte, password string) (*models.Envelope, error) {
	key, salt, err := DeriveKey(password, nil)
	if err != nil {
		return nil, err
	}
	ciphertext, err := Encrypt(plaintext, key)
	if err != nil {
		return nil, err
	}
	return &models.Envelope{Type: models.EnvelopePassword, Ciphertext: ciphertext, Salt: salt}, nil
}

// OpenWithKey decrypts a key-mode envelope.
func OpenWithKey(env *models.Envelope, key []byte) ([]byte, error) {
	if env.Type != models.EnvelopeKey {
		return nil, fmt.Errorf("envelope type is %q, want %q", env.Type, models.EnvelopeKey)
	}
	return Decrypt(env.Ciphertext, key)
}

// OpenWithPassword re-derives the key from the password and the envelope's
// salt and decrypts a password-mode envelope.
func OpenWithPassword(env *models.Envelope, password string) ([]byte, error) {
	if env.Type != models.EnvelopePassword {
		return nil, fmt.Errorf("envelope type is %q, want %q", env.Type, models.EnvelopePassword)
	}
	key, _, err := DeriveKey(password, env.Salt)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return Decrypt(env.Ciphertext, key)
}
