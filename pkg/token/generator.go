// Package token provides cryptographically secure token generation and
// validation for NebulaFleet node authentication.
//
// Tokens are generated using crypto/rand and hashed with HMAC-SHA256
// before storage; the plaintext value is never persisted. The wire
// format is `<prefix><32 lowercase alphanumerics>` (see Generate), with
// a legacy format (32+ mixed-case alphanumerics, no prefix) still
// accepted by FormatValid for tokens issued before the prefix scheme.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

const (
	// SuffixLength is the number of random lowercase-alphanumeric
	// characters following the prefix.
	SuffixLength = 32

	// PreviewLength is how many leading characters of a token are safe
	// to retain for audit/log display.
	PreviewLength = 12

	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	newFormat    = regexp.MustCompile(`^[a-z0-9_]{3,20}[a-z0-9]{32}$`)
	legacyFormat = regexp.MustCompile(`^[A-Za-z0-9]{32,}$`)
)

// Generate creates a new token with the given prefix (e.g. "mnebula_").
// The prefix is not validated here; callers should validate it once at
// the SystemSetting("token_prefix") write site.
func Generate(prefix string) (string, error) {
	suffix := make([]byte, SuffixLength)
	raw := make([]byte, SuffixLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i, b := range raw {
		suffix[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return prefix + string(suffix), nil
}

// Hash produces an HMAC-SHA256 hash of the token using the provided
// secret, hex-encoded for storage.
func Hash(tok, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(tok))
	return hex.EncodeToString(h.Sum(nil))
}

// Validate compares a provided token against a stored hash using
// constant-time comparison.
func Validate(provided, secret, storedHash string) bool {
	providedHash := Hash(provided, secret)
	return hmac.Equal([]byte(providedHash), []byte(storedHash))
}

// FormatValid reports whether tok matches either the current prefixed
// format or the legacy unprefixed format. Both are accepted so that
// tokens issued before the prefix scheme existed keep validating; every
// fresh call to Generate produces a string this function accepts.
func FormatValid(tok string) bool {
	if tok == "" {
		return false
	}
	return newFormat.MatchString(tok) || legacyFormat.MatchString(tok)
}

// Preview returns the first PreviewLength characters of tok, or tok
// itself if shorter — used for audit rows and log lines so the full
// value is never retained outside the reissue response.
func Preview(tok string) string {
	if len(tok) <= PreviewLength {
		return tok
	}
	return tok[:PreviewLength]
}
