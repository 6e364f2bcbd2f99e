package security

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
)

type mapProvider struct {
	mu      sync.Mutex
	secrets map[string]string
	reads   int
	err     error
}

func newMapProvider() *mapProvider {
	return &mapProvider{secrets: make(map[string]string)}
}

func (p *mapProvider) GetSecret(_ context.Context, path string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	if p.err != nil {
		return "", p.err
	}
	value, ok := p.secrets[path]
	if !ok {
		return "", ErrSecretNotFound
	}
	return value, nil
}

func (p *mapProvider) SetSecret(_ context.Context, path, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.secrets[path] = value
	return nil
}

func newMasterKey(t *testing.T) string {
	t.Helper()
	key, err := GenerateMasterKey()
	require.NoError(t, err)
	return key
}

func newTestKeychain(t *testing.T) (*Keychain, *Vault, *mapProvider) {
	t.Helper()

	provider := newMapProvider()
	provider.secrets[MasterKeyPath] = newMasterKey(t)
	vault := NewVault(provider, clock.NewTestClock(time.Unix(1_700_000_000, 0)), zap.NewNop())

	return NewKeychain(vault, zap.NewNop()), vault, provider
}

// ============================================================================
// Encryption
// ============================================================================

func TestEncryptionRoundTrip(t *testing.T) {
	t.Parallel()

	enc, err := NewEncryption(newMasterKey(t))
	require.NoError(t, err)
	require.Len(t, enc.KeyID(), keyIDSize)

	sealed, err := enc.Seal([]byte("wallet secret"), []byte("aad"))
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "wallet secret")

	opened, err := enc.Open(sealed, []byte("aad"))
	require.NoError(t, err)
	require.Equal(t, []byte("wallet secret"), opened)

	_, err = enc.Open(sealed, []byte("other"))
	require.Error(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = enc.Open(sealed, []byte("aad"))
	require.Error(t, err)

	_, err = enc.Open([]byte{1, 2}, nil)
	require.Error(t, err)
}

func TestEncryptionKeyValidation(t *testing.T) {
	t.Parallel()

	_, err := NewEncryption("short")
	require.Error(t, err)

	_, err = NewEncryption(base64.StdEncoding.EncodeToString(make([]byte, 16)))
	require.Error(t, err)

	raw := "0123456789abcdef0123456789abcdef"
	enc, err := NewEncryption(raw)
	require.NoError(t, err)

	other, err := NewEncryption(newMasterKey(t))
	require.NoError(t, err)
	require.NotEqual(t, enc.KeyID(), other.KeyID())
}

// ============================================================================
// Keychain
// ============================================================================

func TestKeychainRoundTrip(t *testing.T) {
	t.Parallel()

	keychain, _, _ := newTestKeychain(t)
	ctx := context.Background()

	sealed, err := keychain.Encrypt(ctx, []byte("s3cret"))
	require.NoError(t, err)

	keyID, err := keychain.KeyID(ctx)
	require.NoError(t, err)
	require.Equal(t, keyID, sealed.PublicKey)

	secret, err := keychain.Decrypt(ctx, sealed)
	require.NoError(t, err)
	require.Equal(t, []byte("s3cret"), secret)
}

func TestKeychainDecryptFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	keychain, vault, _ := newTestKeychain(t)

	sealed, err := keychain.Encrypt(ctx, []byte("s3cret"))
	require.NoError(t, err)

	t.Run("corrupt data", func(t *testing.T) {
		bad := domain.EncryptedSecret{
			PublicKey: sealed.PublicKey,
			Data:      append([]byte{}, sealed.Data...),
		}
		bad.Data[len(bad.Data)-1] ^= 0x01

		_, err := keychain.Decrypt(ctx, bad)
		require.ErrorIs(t, err, domain.ErrSecretDecryptionFailed)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := keychain.Decrypt(cctx, sealed)
		require.ErrorIs(t, err, domain.ErrCancelled)

		_, err = keychain.Encrypt(cctx, []byte("x"))
		require.ErrorIs(t, err, domain.ErrCancelled)
	})

	t.Run("rotated master key", func(t *testing.T) {
		require.NoError(t, vault.SetSecret(ctx, MasterKeyPath, newMasterKey(t)))

		_, err := keychain.Decrypt(ctx, sealed)
		require.ErrorIs(t, err, domain.ErrPublicKeyMismatch)
	})
}

func TestKeychainMissingMasterKey(t *testing.T) {
	t.Parallel()

	provider := newMapProvider()
	keychain := NewKeychain(NewVault(provider, nil, zap.NewNop()), zap.NewNop())

	_, err := keychain.Encrypt(context.Background(), []byte("x"))
	require.ErrorIs(t, err, ErrSecretNotFound)
}

// ============================================================================
// Vault
// ============================================================================

func TestVaultCachesUntilTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := clock.NewTestClock(time.Unix(1_700_000_000, 0))
	provider := newMapProvider()
	provider.secrets["a/b"] = "v1"
	vault := NewVault(provider, clk, zap.NewNop())

	value, err := vault.GetSecret(ctx, "a/b")
	require.NoError(t, err)
	require.Equal(t, "v1", value)

	provider.secrets["a/b"] = "v2"
	value, err = vault.GetSecret(ctx, "a/b")
	require.NoError(t, err)
	require.Equal(t, "v1", value)
	require.Equal(t, 1, provider.reads)

	clk.SetTime(clk.Now().Add(DefaultSecretTTL))
	value, err = vault.GetSecret(ctx, "a/b")
	require.NoError(t, err)
	require.Equal(t, "v2", value)
	require.Equal(t, 2, provider.reads)
}

func TestVaultProviderError(t *testing.T) {
	t.Parallel()

	provider := newMapProvider()
	provider.err = errors.New("sealed")
	vault := NewVault(provider, nil, zap.NewNop())

	_, err := vault.GetMasterKey(context.Background())
	require.ErrorContains(t, err, "sealed")
}

func TestEnvVaultProvider(t *testing.T) {
	t.Setenv("KEYCHAIN_MASTER_KEY", "from-env")

	provider := NewEnvVaultProvider()
	value, err := provider.GetSecret(context.Background(), MasterKeyPath)
	require.NoError(t, err)
	require.Equal(t, "from-env", value)

	_, err = provider.GetSecret(context.Background(), "missing/path")
	require.ErrorIs(t, err, ErrSecretNotFound)
}

func TestFileVaultProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	provider, err := NewFileVaultProvider(dir, newMasterKey(t))
	require.NoError(t, err)

	require.NoError(t, provider.SetSecret(ctx, MasterKeyPath, "stored"))

	value, err := provider.GetSecret(ctx, MasterKeyPath)
	require.NoError(t, err)
	require.Equal(t, "stored", value)

	raw, err := os.ReadFile(filepath.Join(dir, "keychain", "master-key.enc"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "stored")

	_, err = provider.GetSecret(ctx, "other")
	require.ErrorIs(t, err, ErrSecretNotFound)

	_, err = provider.GetSecret(ctx, "")
	require.Error(t, err)
}

func TestPathHelpers(t *testing.T) {
	t.Parallel()

	require.Equal(t, "KEYCHAIN_MASTER_KEY", pathToEnvKey(MasterKeyPath))

	path, err := secretFilePath("/vault", "../../etc/passwd")
	require.NoError(t, err)
	require.Equal(t, "/vault/etc/passwd.enc", path)
}
