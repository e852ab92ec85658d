// Package cryptox holds the field-level cryptography of the admin backend:
// the two-key symmetric cipher (transport key shared with the client,
// storage key known only to the server), the password envelope built from
// both, and the deterministic lookup digest used to find accounts by email.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"golang.org/x/crypto/hkdf"
)

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

// CiphertextLen is the length of the Encrypt output for a plaintext of n bytes.
func CiphertextLen(n int) int {
	return base64.StdEncoding.EncodedLen(nonceSize + n + tagSize)
}

// ErrInvalidCiphertext is returned whenever a value cannot be authenticated
// and decrypted with the given key. It is never collapsed into an empty plaintext.
var ErrInvalidCiphertext = common.ErrDecryptionFailed

// ErrEmptySecret is returned when a key is built from an empty secret.
var ErrEmptySecret = errors.New("empty secret")

// Key is implemented only by TransportKey and StorageKey.
type Key interface {
	material() []byte
}

// TransportKey (Kt) is shared with the client, which encrypts sensitive
// fields with it before sending them.
type TransportKey struct {
	k []byte
}

// StorageKey (Ks) never leaves the server and protects values at rest.
type StorageKey struct {
	k []byte
}

func (t TransportKey) material() []byte { return t.k }
func (s StorageKey) material() []byte   { return s.k }

// IsZero reports whether the key was never initialised.
func (t TransportKey) IsZero() bool { return len(t.k) == 0 }

// IsZero reports whether the key was never initialised.
func (s StorageKey) IsZero() bool { return len(s.k) == 0 }

// NewTransportKey derives the AES-256 transport key from a configured secret.
func NewTransportKey(secret string) (TransportKey, error) {
	k, err := deriveKey(secret, "adminkeeper/transport/v1")
	if err != nil {
		return TransportKey{}, err
	}
	return TransportKey{k: k}, nil
}

// NewStorageKey derives the AES-256 storage key from a configured secret.
func NewStorageKey(secret string) (StorageKey, error) {
	k, err := deriveKey(secret, "adminkeeper/storage/v1")
	if err != nil {
		return StorageKey{}, err
	}
	return StorageKey{k: k}, nil
}

// deriveKey expands secret with HKDF-SHA256. The info label separates the two
// key purposes, so one secret string never yields the same key for both.
func deriveKey(secret, info string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext with AES-GCM under key. The result is
// base64(nonce || ciphertext || tag); every call uses a fresh random nonce.
func Encrypt(plaintext string, key Key) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. A wrong key, a truncated or
// tampered value, or malformed base64 all yield ErrInvalidCiphertext. A value
// that really encrypted "" decrypts to "" with a nil error.
func Decrypt(ciphertext string, key Key) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: bad encoding", ErrInvalidCiphertext)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", fmt.Errorf("%w: too short", ErrInvalidCiphertext)
	}

	nonce, body := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrInvalidCiphertext)
	}
	return string(plaintext), nil
}

func newAEAD(key Key) (cipher.AEAD, error) {
	if key == nil || len(key.material()) == 0 {
		return nil, ErrEmptySecret
	}
	block, err := aes.NewCipher(key.material())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
