package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenEntropyBytes gives 256 bits of entropy; collisions are practically
// impossible, and the unique constraint on the token column backstops them.
const tokenEntropyBytes = 32

// NewTokenString returns a cryptographically random URL-safe token string.
func NewTokenString() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
