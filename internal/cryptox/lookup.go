package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// LookupKey is the indexable, non-reversible handle of an email address.
//
// It is an unsalted SHA-256 digest so the same address always maps to the
// same key. Anyone holding a candidate email can compute it too: treat it as
// a pseudonymous index, never as a secret or a credential.
type LookupKey string

// String returns the hex digest.
func (k LookupKey) String() string { return string(k) }

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Digest returns the lookup key of a plaintext email.
func Digest(email string) LookupKey {
	sum := sha256.Sum256([]byte(NormalizeEmail(email)))
	return LookupKey(hex.EncodeToString(sum[:]))
}
