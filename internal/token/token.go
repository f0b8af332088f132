// Package token implements the stateless anti-forgery token protocol that
// authorizes state-changing API calls.
//
// A token is "<issuedAt>.<hex(HMAC-SHA256(issuedAt, secret))>". Validity is
// recomputed from the shared secret and the current time; no server-side
// session state exists.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is the fixed validity window measured from issuance.
const DefaultWindow = 30 * time.Minute

var (
	// ErrTokenInvalid covers malformed tokens and signature mismatches.
	ErrTokenInvalid = errors.New("invalid anti-forgery token")
	// ErrTokenExpired covers tokens outside the validity window, including
	// tokens with a future issue time (negative age from clock skew).
	ErrTokenExpired = errors.New("anti-forgery token expired")
)

// Service issues and validates anti-forgery tokens.
type Service struct {
	secret []byte
	window time.Duration
	now    func() time.Time
}

// NewService constructs a token service. A non-positive window falls back
// to DefaultWindow.
func NewService(secret []byte, window time.Duration) *Service {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Service{secret: secret, window: window, now: time.Now}
}

// Issue stamps the current time and signs it with the shared secret.
func (s *Service) Issue() string {
	issuedAt := s.now().Unix()
	return strconv.FormatInt(issuedAt, 10) + "." + hex.EncodeToString(s.sign(issuedAt))
}

// Validate recomputes the signature and checks the elapsed time since
// issuance. The signature comparison is constant-time.
func (s *Service) Validate(tok string) error {
	issuedPart, sigPart, ok := strings.Cut(tok, ".")
	if !ok {
		return ErrTokenInvalid
	}
	issuedAt, err := strconv.ParseInt(issuedPart, 10, 64)
	if err != nil {
		return ErrTokenInvalid
	}
	sig, err := hex.DecodeString(sigPart)
	if err != nil {
		return ErrTokenInvalid
	}
	if !hmac.Equal(sig, s.sign(issuedAt)) {
		return ErrTokenInvalid
	}
	age := s.now().Sub(time.Unix(issuedAt, 0))
	if age < 0 || age > s.window {
		return ErrTokenExpired
	}
	return nil
}

func (s *Service) sign(issuedAt int64) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(strconv.FormatInt(issuedAt, 10)))
	return mac.Sum(nil)
}
