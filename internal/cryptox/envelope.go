package cryptox

// SealEnvelope wraps a client-supplied transport ciphertext with the storage
// key. The stored value is Ks(Kt(plaintext)); neither key alone recovers it.
func SealEnvelope(transportCiphertext string, ks StorageKey) (string, error) {
	return Encrypt(transportCiphertext, ks)
}

// OpenEnvelope removes the storage layer and then the transport layer, in
// that order, and returns the plaintext.
func OpenEnvelope(stored string, ks StorageKey, kt TransportKey) (string, error) {
	inner, err := Decrypt(stored, ks)
	if err != nil {
		return "", err
	}
	return Decrypt(inner, kt)
}
