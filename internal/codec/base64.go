// Package codec implements the judge's wire-transport conventions: the
// base64 envelope for free-form submission payloads and the field
// projection applied to submission responses. Ported in semantics from
// the reference implementation's Base64Encoder and FieldFilter.
package codec

import (
	"encoding/base64"
	"fmt"
)

// Encode base64-encodes text. Empty input encodes to empty output,
// matching the reference encoder's short-circuit.
func Encode(text string) string {
	if text == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// Decode base64-decodes text, returning a wrapped error on malformed
// input so callers can surface it as a validation failure.
func Decode(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid base64 data: %w", err)
	}
	return string(raw), nil
}

// EncodeOptional encodes a possibly-nil string, preserving nilness.
func EncodeOptional(text *string) *string {
	if text == nil {
		return nil
	}
	encoded := Encode(*text)
	return &encoded
}

// DecodeOptional decodes a possibly-nil string, preserving nilness.
func DecodeOptional(encoded *string) (*string, error) {
	if encoded == nil {
		return nil, nil
	}
	decoded, err := Decode(*encoded)
	if err != nil {
		return nil, err
	}
	return &decoded, nil
}
