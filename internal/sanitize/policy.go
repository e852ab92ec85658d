// Package sanitize cleans untrusted request payloads before anything else
// reads them, and guards the document store against operator injection.
package sanitize

import "regexp"

// DefaultMaxStringLength bounds every string after cleaning. It must stay
// above the transport ciphertext of the longest text field, since strings are
// cut before they are decrypted.
const DefaultMaxStringLength = 12000

// DefaultKeyPattern is the allow-list applied to object keys.
var DefaultKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Policy is fixed per route. The zero value keeps strings unbounded, keeps
// empty values and applies no key pattern beyond the built-in key rules.
type Policy struct {
	MaxStringLength   int
	RemoveEmptyValues bool
	AllowedKeyPattern *regexp.Regexp
}

// DefaultPolicy is the policy applied to admin routes.
func DefaultPolicy() Policy {
	return Policy{
		MaxStringLength:   DefaultMaxStringLength,
		RemoveEmptyValues: true,
		AllowedKeyPattern: DefaultKeyPattern,
	}
}

// WithMaxStringLength returns a copy of p with a different string bound.
func (p Policy) WithMaxStringLength(n int) Policy {
	p.MaxStringLength = n
	return p
}
