// Package ident implements the identifier scheme: external secret ids for
// shareable URLs and the one-way mapping to internal store keys.
//
// The store key is never the same bytes as the id handed out in URLs, so
// read access to the store backend alone does not let an operator enumerate
// live external ids.
package ident

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// externalIDSize is the entropy of an external id in bytes.
const externalIDSize = 32

var encoding = base64.RawURLEncoding

// NewExternalID returns a fresh external secret id: 256 bits of secure
// randomness in URL-safe text form.
func NewExternalID() (string, error) {
	raw := make([]byte, externalIDSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate external id: %w", err)
	}
	return encoding.EncodeToString(raw), nil
}

// InternalKey derives the store lookup key for an external id. The mapping
// is deterministic and non-invertible.
func InternalKey(externalID string) string {
	sum := sha256.Sum256([]byte(externalID))
	return encoding.EncodeToString(sum[:])
}
