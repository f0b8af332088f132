package client

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/atinyakov/BurnLink/internal/crypto"
)

// BuildShareLink assembles a shareable URL. The external id and, for
// key-mode secrets, the exported key live in the URL fragment, which
// browsers never send to the server. key is nil for password-mode links;
// the password itself is conveyed out-of-band.
func BuildShareLink(baseURL, externalID string, key []byte) string {
	fragment := externalID
	if key != nil {
		fragment += "." + crypto.ExportKey(key)
	}
	return strings.TrimSuffix(baseURL, "/") + "/s#" + fragment
}

// ParseShareLink extracts the external id and, if present, the raw key
// from a share link.
func ParseShareLink(link string) (externalID string, key []byte, err error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", nil, fmt.Errorf("parse link: %w", err)
	}
	if u.Fragment == "" {
		return "", nil, errors.New("link has no fragment")
	}

	id, keyPart, hasKey := strings.Cut(u.Fragment, ".")
	if id == "" {
		return "", nil, errors.New("link fragment has no secret id")
	}
	if !hasKey {
		return id, nil, nil
	}
	key, err = crypto.ImportKey(keyPart)
	if err != nil {
		return "", nil, err
	}
	return id, key, nil
}
