// internal/security/vault.go
package security

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/zap"
)

// DefaultSecretTTL is how long a fetched secret is served from cache
const DefaultSecretTTL = 5 * time.Minute

var ErrSecretNotFound = errors.New("secret not found")

// VaultProvider defines interface for secret storage backends
type VaultProvider interface {
	GetSecret(ctx context.Context, path string) (string, error)
	SetSecret(ctx context.Context, path, value string) error
}

// Vault fronts a provider with a short-lived cache
type Vault struct {
	provider   VaultProvider
	cache      map[string]*cachedSecret
	cacheMutex sync.RWMutex
	cacheTTL   time.Duration
	clock      clock.Clock
	logger     *zap.Logger
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// NewVault creates a new vault instance
func NewVault(provider VaultProvider, clk clock.Clock, logger *zap.Logger) *Vault {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &Vault{
		provider: provider,
		cache:    make(map[string]*cachedSecret),
		cacheTTL: DefaultSecretTTL,
		clock:    clk,
		logger:   logger,
	}
}

// GetMasterKey retrieves the keychain master key
func (v *Vault) GetMasterKey(ctx context.Context) (string, error) {
	return v.GetSecret(ctx, MasterKeyPath)
}

// GetSecret retrieves a secret with caching
func (v *Vault) GetSecret(ctx context.Context, path string) (string, error) {
	now := v.clock.Now()

	v.cacheMutex.RLock()
	if cached, ok := v.cache[path]; ok && now.Before(cached.expiresAt) {
		v.cacheMutex.RUnlock()
		return cached.value, nil
	}
	v.cacheMutex.RUnlock()

	v.logger.Debug("Fetching secret from provider", zap.String("path", path))
	secret, err := v.provider.GetSecret(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to get secret from vault: %w", err)
	}

	v.cacheMutex.Lock()
	v.cache[path] = &cachedSecret{
		value:     secret,
		expiresAt: now.Add(v.cacheTTL),
	}
	v.cacheMutex.Unlock()

	return secret, nil
}

// SetSecret stores a secret and drops the cached copy
func (v *Vault) SetSecret(ctx context.Context, path, value string) error {
	if err := v.provider.SetSecret(ctx, path, value); err != nil {
		return fmt.Errorf("failed to set secret in vault: %w", err)
	}

	v.cacheMutex.Lock()
	delete(v.cache, path)
	v.cacheMutex.Unlock()

	v.logger.Info("Secret updated in vault", zap.String("path", path))

	return nil
}

// ============================================================================
// VAULT PROVIDERS
// ============================================================================

// EnvVaultProvider reads secrets from environment variables (for development)
type EnvVaultProvider struct{}

func NewEnvVaultProvider() *EnvVaultProvider {
	return &EnvVaultProvider{}
}

func (p *EnvVaultProvider) GetSecret(ctx context.Context, path string) (string, error) {
	envKey := pathToEnvKey(path)

	value := os.Getenv(envKey)
	if value == "" {
		return "", fmt.Errorf("%w: %s (env: %s)", ErrSecretNotFound, path, envKey)
	}

	return value, nil
}

func (p *EnvVaultProvider) SetSecret(ctx context.Context, path, value string) error {
	return os.Setenv(pathToEnvKey(path), value)
}

// FileVaultProvider stores secrets in encrypted files
type FileVaultProvider struct {
	baseDir    string
	encryption *Encryption
	mutex      sync.RWMutex
}

func NewFileVaultProvider(baseDir, encryptionKey string) (*FileVaultProvider, error) {
	encryption, err := NewEncryption(encryptionKey)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}

	return &FileVaultProvider{
		baseDir:    baseDir,
		encryption: encryption,
	}, nil
}

func (p *FileVaultProvider) GetSecret(ctx context.Context, path string) (string, error) {
	filePath, err := secretFilePath(p.baseDir, path)
	if err != nil {
		return "", err
	}

	p.mutex.RLock()
	defer p.mutex.RUnlock()

	ciphertext, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, path)
		}
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	plaintext, err := p.encryption.Open(ciphertext, []byte(path))
	if err != nil {
		return "", fmt.Errorf("failed to decrypt secret: %w", err)
	}

	return string(plaintext), nil
}

func (p *FileVaultProvider) SetSecret(ctx context.Context, path, value string) error {
	filePath, err := secretFilePath(p.baseDir, path)
	if err != nil {
		return err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	// Path is bound as associated data so files cannot be swapped
	ciphertext, err := p.encryption.Seal([]byte(value), []byte(path))
	if err != nil {
		return fmt.Errorf("failed to encrypt secret: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, ciphertext, 0600); err != nil {
		return fmt.Errorf("failed to write secret: %w", err)
	}

	return nil
}
