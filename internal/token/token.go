// Package token generates opaque credential tokens and computes the
// fingerprints under which they are stored. Raw tokens are handed to clients
// exactly once and never persisted; only SHA-256 fingerprints reach the
// database, so a leaked table does not yield usable credentials.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// opaqueTokenBytes is the raw entropy per token (512 bits).
const opaqueTokenBytes = 64

// Opaque returns a cryptographically random, URL-safe token without padding
// characters. It returns an error only if the system RNG fails.
func Opaque() (string, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Fingerprint returns the hex-encoded SHA-256 digest of a raw token. It is
// deterministic: the same raw token always maps to the same fingerprint, so
// lookups work, while the raw token cannot feasibly be recovered.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Mask hides token material for diagnostics, revealing at most the last four
// characters.
func Mask(raw string) string {
	if len(raw) <= 4 {
		return "****"
	}
	return "****" + raw[len(raw)-4:]
}

// MaskURL masks the value of a "token=" query parameter inside a URL so
// links can be logged safely.
func MaskURL(url string) string {
	idx := strings.Index(url, "token=")
	if idx < 0 {
		return url
	}
	prefix := url[:idx+len("token=")]
	return prefix + Mask(url[idx+len("token="):])
}
