package platform

import (
	"crypto/ecdh"
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeKey decodes URL-safe base64 with or without padding. Standard
// alphabet input is accepted too.
func DecodeKey(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)

	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	return b, nil
}

// EncodeKey returns unpadded URL-safe base64, the form used on the wire.
func EncodeKey(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// ParseApplicationServerKey validates an application server key: a 65 byte
// uncompressed point on P-256.
func ParseApplicationServerKey(s string) (*ecdh.PublicKey, error) {
	raw, err := DecodeKey(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != 65 || raw[0] != 0x04 {
		return nil, fmt.Errorf("application server key: want 65 byte uncompressed point, got %d bytes", len(raw))
	}

	pub, err := ecdh.P256().NewPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("application server key: %w", err)
	}
	return pub, nil
}
