// internal/security/keychain.go
package security

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
)

var _ domain.Keychain = (*Keychain)(nil)

// Keychain seals wallet secrets with a key derived from the vault master key.
// EncryptedSecret.PublicKey records the key id that sealed the data, so a
// rotated master key is reported as a mismatch rather than a corrupt blob.
type Keychain struct {
	vault  *Vault
	logger *zap.Logger

	mu        sync.Mutex
	masterKey string
	enc       *Encryption
}

func NewKeychain(vault *Vault, logger *zap.Logger) *Keychain {
	return &Keychain{
		vault:  vault,
		logger: logger,
	}
}

// KeyID returns the id of the current master key
func (k *Keychain) KeyID(ctx context.Context) ([]byte, error) {
	enc, err := k.current(ctx)
	if err != nil {
		return nil, err
	}
	return enc.KeyID(), nil
}

func (k *Keychain) Encrypt(ctx context.Context, secret []byte) (domain.EncryptedSecret, error) {
	if ctx.Err() != nil {
		return domain.EncryptedSecret{}, fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
	}

	enc, err := k.current(ctx)
	if err != nil {
		return domain.EncryptedSecret{}, err
	}

	keyID := enc.KeyID()
	data, err := enc.Seal(secret, keyID)
	if err != nil {
		return domain.EncryptedSecret{}, fmt.Errorf("failed to seal secret: %w", err)
	}

	return domain.EncryptedSecret{PublicKey: keyID, Data: data}, nil
}

func (k *Keychain) Decrypt(ctx context.Context, encrypted domain.EncryptedSecret) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
	}

	enc, err := k.current(ctx)
	if err != nil {
		return nil, err
	}

	keyID := enc.KeyID()
	if !bytes.Equal(encrypted.PublicKey, keyID) {
		k.logger.Warn("Secret sealed by a different keychain key")
		return nil, domain.ErrPublicKeyMismatch
	}

	secret, err := enc.Open(encrypted.Data, keyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSecretDecryptionFailed, err)
	}

	return secret, nil
}

// current returns the cipher for the vault's master key, rebuilding it when
// the key has changed
func (k *Keychain) current(ctx context.Context) (*Encryption, error) {
	masterKey, err := k.vault.GetMasterKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load keychain master key: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.enc != nil && k.masterKey == masterKey {
		return k.enc, nil
	}

	enc, err := NewEncryption(masterKey)
	if err != nil {
		return nil, err
	}
	if k.enc != nil {
		k.logger.Info("Keychain master key changed")
	}
	k.masterKey = masterKey
	k.enc = enc

	return enc, nil
}
