package model

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet excludes visually confusable characters (0/O, 1/I/L) so
// generated codes survive being read aloud or retyped from print.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// DefaultCodeLength is used when a caller does not request a length.
const DefaultCodeLength = 8

// GenerateCode produces one random candidate code of the requested length.
// Uniqueness against existing codes is the caller's responsibility.
func GenerateCode(length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
