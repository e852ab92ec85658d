package config

import (
	"errors"

	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
)

// Secrets are the process-wide keys, derived once and never mutated.
type Secrets struct {
	Transport  cryptox.TransportKey
	Storage    cryptox.StorageKey
	SigningKey []byte
}

var (
	ErrMissingSecret = errors.New("transport key, storage key and jwt secret are required")
	ErrSharedSecret  = errors.New("transport and storage keys must differ")
)

// Secrets derives the typed keys from the configured secret strings.
func (c *Config) Secrets() (Secrets, error) {
	if c.TransportSecret == "" || c.StorageSecret == "" || c.JWTSecret == "" {
		return Secrets{}, ErrMissingSecret
	}
	// a shared value would let the client-known key open data at rest
	if c.TransportSecret == c.StorageSecret {
		return Secrets{}, ErrSharedSecret
	}

	kt, err := cryptox.NewTransportKey(c.TransportSecret)
	if err != nil {
		return Secrets{}, err
	}
	ks, err := cryptox.NewStorageKey(c.StorageSecret)
	if err != nil {
		return Secrets{}, err
	}

	return Secrets{Transport: kt, Storage: ks, SigningKey: []byte(c.JWTSecret)}, nil
}
