package token

import (
	"strings"
	"testing"
	"time"
)

var secret = []byte("test-secret")

// fixedService returns a Service whose clock is controllable by the test.
func fixedService(now *time.Time) *Service {
	s := NewService(secret, DefaultWindow)
	s.now = func() time.Time { return *now }
	return s
}

func TestIssueValidate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := fixedService(&now)

	tok := s.Issue()
	if err := s.Validate(tok); err != nil {
		t.Fatalf("Validate = %v; want nil", err)
	}
}

func TestValidate_WindowBoundaries(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	now := issued
	s := fixedService(&now)
	tok := s.Issue()

	now = issued.Add(29*time.Minute + 59*time.Second)
	if err := s.Validate(tok); err != nil {
		t.Errorf("Validate at 29m59s = %v; want nil", err)
	}

	now = issued.Add(30*time.Minute + 1*time.Second)
	if err := s.Validate(tok); err != ErrTokenExpired {
		t.Errorf("Validate at 30m01s = %v; want %v", err, ErrTokenExpired)
	}
}

func TestValidate_FutureIssued(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	now := issued
	s := fixedService(&now)
	tok := s.Issue()

	now = issued.Add(-time.Minute)
	if err := s.Validate(tok); err != ErrTokenExpired {
		t.Errorf("Validate with future issuedAt = %v; want %v", err, ErrTokenExpired)
	}
}

func TestValidate_Malformed(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := fixedService(&now)

	for _, tok := range []string{
		"",
		"no-dot",
		"notanumber.deadbeef",
		"1700000000.not-hex",
		"1700000000.",
	} {
		if err := s.Validate(tok); err != ErrTokenInvalid {
			t.Errorf("Validate(%q) = %v; want %v", tok, err, ErrTokenInvalid)
		}
	}
}

func TestValidate_TamperedTimestamp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := fixedService(&now)
	tok := s.Issue()

	_, sig, _ := strings.Cut(tok, ".")
	forged := "1700000099." + sig
	if err := s.Validate(forged); err != ErrTokenInvalid {
		t.Errorf("Validate(forged) = %v; want %v", err, ErrTokenInvalid)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := fixedService(&now)
	tok := s.Issue()

	other := NewService([]byte("other-secret"), DefaultWindow)
	other.now = func() time.Time { return now }
	if err := other.Validate(tok); err != ErrTokenInvalid {
		t.Errorf("Validate with wrong secret = %v; want %v", err, ErrTokenInvalid)
	}
}

func TestNewService_DefaultWindow(t *testing.T) {
	s := NewService(secret, 0)
	if s.window != DefaultWindow {
		t.Errorf("window = %v; want %v", s.window, DefaultWindow)
	}
}
