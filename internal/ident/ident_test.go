package ident_test

import (
	"encoding/base64"
	"testing"

	"github.com/atinyakov/BurnLink/internal/ident"
)

func TestNewExternalID(t *testing.T) {
	id, err := ident.NewExternalID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		t.Fatalf("id %q is not URL-safe base64: %v", id, err)
	}
	if len(raw) != 32 {
		t.Errorf("id entropy = %d bytes; want 32", len(raw))
	}

	other, err := ident.NewExternalID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == other {
		t.Error("two generated ids are identical")
	}
}

func TestInternalKey(t *testing.T) {
	id, err := ident.NewExternalID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key := ident.InternalKey(id)
	if key == id {
		t.Error("internal key equals external id")
	}
	if got := ident.InternalKey(id); got != key {
		t.Errorf("InternalKey not deterministic: %q vs %q", got, key)
	}
	if ident.InternalKey("a") == ident.InternalKey("b") {
		t.Error("distinct ids map to the same key")
	}

	if _, err := base64.RawURLEncoding.DecodeString(key); err != nil {
		t.Errorf("key %q is not URL-safe base64: %v", key, err)
	}
}
