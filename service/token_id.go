package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const tokenIDBytes = 16

// NewTokenID returns 128 random bits as a 32 character hex string.
func NewTokenID() (string, error) {
	b := make([]byte, tokenIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
