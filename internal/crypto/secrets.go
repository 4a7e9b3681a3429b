package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// GenerateKey returns a random 32-byte secretbox key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

// DeriveKey derives a secretbox key from a configured secret string.
// Deterministic, so every process sharing the secret can decrypt.
func DeriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// Encrypt seals plaintext with an authenticated cipher and a random nonce.
// The nonce is prepended to the ciphertext and the whole blob is returned
// base64-encoded.
func Encrypt(plaintext, key []byte) (string, error) {
	if len(key) != keySize {
		return "", fmt.Errorf("encrypt: key must be %d bytes, got %d", keySize, len(key))
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	var k [keySize]byte
	copy(k[:], key)

	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &k)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Fails if the ciphertext was tampered with or
// the key does not match.
func Decrypt(encrypted string, key []byte) ([]byte, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("decrypt: key must be %d bytes, got %d", keySize, len(key))
	}

	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])

	var k [keySize]byte
	copy(k[:], key)

	plaintext, ok := secretbox.Open(nil, data[nonceSize:], &nonce, &k)
	if !ok {
		return nil, fmt.Errorf("decrypt: authentication failed")
	}
	return plaintext, nil
}
