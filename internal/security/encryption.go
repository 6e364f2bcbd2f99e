// internal/security/encryption.go
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	masterKeySize = 32
	keyIDSize     = 16

	dataKeyInfo = "wallet-sync/keychain/data-key/v1"
	keyIDInfo   = "wallet-sync/keychain/key-id/v1"
)

// Encryption handles sealing and opening of sensitive data.
// The AES-256 data key and the public key id are both derived from the
// master key with HKDF-SHA256, so the id changes whenever the master key does.
type Encryption struct {
	aead  cipher.AEAD
	keyID []byte
}

// NewEncryption creates a new encryption instance
// masterKey should be 32 bytes, raw or base64 encoded
func NewEncryption(masterKey string) (*Encryption, error) {
	keyBytes := []byte(masterKey)

	// If key is base64 encoded, decode it
	if decoded, err := base64.StdEncoding.DecodeString(masterKey); err == nil && len(decoded) == masterKeySize {
		keyBytes = decoded
	}

	if len(keyBytes) != masterKeySize {
		return nil, fmt.Errorf("invalid master key length: must be %d bytes, got %d", masterKeySize, len(keyBytes))
	}

	dataKey, err := deriveKey(keyBytes, dataKeyInfo, 32)
	if err != nil {
		return nil, err
	}
	keyID, err := deriveKey(keyBytes, keyIDInfo, keyIDSize)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(dataKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// GCM gives authenticated encryption; tampering fails Open
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Encryption{aead: gcm, keyID: keyID}, nil
}

// KeyID returns the public identifier of the derived key
func (e *Encryption) KeyID() []byte {
	out := make([]byte, len(e.keyID))
	copy(out, e.keyID)
	return out
}

// Seal encrypts data, binding it to aad. The nonce is prepended.
func (e *Encryption) Seal(data, aad []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return e.aead.Seal(nonce, nonce, data, aad), nil
}

// Open decrypts a payload produced by Seal with the same aad
func (e *Encryption) Open(ciphertext, aad []byte) ([]byte, error) {
	nonceSize := e.aead.NonceSize()
	if len(ciphertext) < nonceSize+e.aead.Overhead() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := e.aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}

// GenerateMasterKey generates a random 32-byte master key, base64 encoded
// for easy storage in config/env
func GenerateMasterKey() (string, error) {
	key := make([]byte, masterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(key), nil
}

func deriveKey(master []byte, info string, size int) ([]byte, error) {
	out := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(info)), out); err != nil {
		return nil, fmt.Errorf("failed to derive %s: %w", info, err)
	}
	return out, nil
}
