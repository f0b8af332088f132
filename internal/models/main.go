// Package models defines the core data structures for encrypted envelopes
// and server-side secret records.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EnvelopeType identifies how the encryption key for an envelope is conveyed.
type EnvelopeType string

const (
	// EnvelopeKey means the raw key travels out-of-band in the URL fragment
	// and never reaches the server.
	EnvelopeKey EnvelopeType = "key"
	// EnvelopePassword means the key is derived from a human password plus
	// the salt carried in the envelope.
	EnvelopePassword EnvelopeType = "password"
)

// SaltSize is the required salt length for password envelopes, in bytes.
const SaltSize = 32

// minCiphertextSize is the nonce (12 bytes) plus the GCM tag (16 bytes);
// anything shorter cannot be a valid sealed payload.
const minCiphertextSize = 12 + 16

// Envelope is the self-describing encrypted payload exchanged between client
// and server. The server stores it opaquely and never inspects the ciphertext.
type Envelope struct {
	// Type is the explicit discriminant; the stored payload is never
	// shape-sniffed to infer the encryption mode.
	Type EnvelopeType `json:"type"`
	// Ciphertext is nonce || AEAD output, base64-encoded on the wire.
	Ciphertext []byte `json:"ciphertext"`
	// Salt is present only for password envelopes.
	Salt []byte `json:"salt,omitempty"`
}

// Validate checks the envelope's structural invariants: a known type tag,
// a plausibly sized ciphertext, and a salt present exactly when the type
// requires one.
func (e *Envelope) Validate() error {
	switch e.Type {
	case EnvelopeKey:
		if len(e.Salt) != 0 {
			return errors.New("key envelope must not carry a salt")
		}
	case EnvelopePassword:
		if len(e.Salt) != SaltSize {
			return fmt.Errorf("password envelope salt must be %d bytes, got %d", SaltSize, len(e.Salt))
		}
	default:
		return fmt.Errorf("unknown envelope type %q", e.Type)
	}
	if len(e.Ciphertext) < minCiphertextSize {
		return fmt.Errorf("ciphertext too short: %d bytes", len(e.Ciphertext))
	}
	return nil
}

// ParseEnvelope decodes and validates an envelope from its JSON wire form.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// SecretRecord is the server-owned state for one secret, stored under the
// internal store key with a store-native TTL. It is created once, mutated
// only by the retrieval path, and removed either by TTL expiry or by the
// final view.
type SecretRecord struct {
	// Envelope is the opaque encrypted payload as received from the client.
	Envelope json.RawMessage `json:"envelope"`
	// MaxViews is the view budget, 1..=100.
	MaxViews int `json:"maxViews"`
	// ViewCount is the number of views consumed so far, 0..=MaxViews.
	ViewCount int `json:"viewCount"`
	// CreatedAt is when the record was written.
	CreatedAt time.Time `json:"createdAt"`
}
