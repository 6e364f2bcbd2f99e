package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
	"wallet-sync-service/internal/repository"
)

type walletHarness struct {
	keys     *fakeKeys
	keychain *fakeKeychain
	store    *repository.MemoryWalletRepository
	wallets  *WalletUsecase
}

func newWalletHarness() *walletHarness {
	keys := &fakeKeys{
		key:   domain.LedgerKey{PublicKey: "pk-new", Secret: []byte("s3cret")},
		words: []string{"abandon", "ability", "able"},
	}
	keychain := &fakeKeychain{}
	store := repository.NewMemoryWalletRepository()

	return &walletHarness{
		keys:     keys,
		keychain: keychain,
		store:    store,
		wallets:  NewWalletUsecase(store, keys, keychain, NewAddressBook(newFakeLedger()), zap.NewNop()),
	}
}

func TestCreateWalletReplacesCollection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newWalletHarness()
	require.NoError(t, h.store.Reset(ctx, []*domain.WalletRecord{{Info: domain.WalletInfo{PublicKey: "pk-old"}}}))

	info, words, err := h.wallets.CreateWallet(ctx, []byte("pw"))
	require.NoError(t, err)
	require.Equal(t, domain.WalletPublicKey("pk-new"), info.PublicKey)
	require.Equal(t, h.keys.words, words)
	require.Equal(t, []byte("sealed:s3cret"), info.EncryptedSecret.Data)

	records, err := h.wallets.AvailableWallets(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, domain.WalletPublicKey("pk-new"), records[0].Info.PublicKey)
	require.False(t, records[0].ExportCompleted)
	require.Nil(t, records[0].State)
}

func TestImportWalletIsExported(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newWalletHarness()

	info, err := h.wallets.ImportWallet(ctx, []string{"a", "b"}, []byte("pw"))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, h.keys.importWords)

	record, err := h.wallets.GetWallet(ctx, info.PublicKey)
	require.NoError(t, err)
	require.True(t, record.ExportCompleted)
}

func TestConfirmWalletExported(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newWalletHarness()

	info, _, err := h.wallets.CreateWallet(ctx, []byte("pw"))
	require.NoError(t, err)
	require.NoError(t, h.wallets.ConfirmWalletExported(ctx, info.PublicKey))

	record, err := h.wallets.GetWallet(ctx, info.PublicKey)
	require.NoError(t, err)
	require.True(t, record.ExportCompleted)

	err = h.wallets.ConfirmWalletExported(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrWalletNotFound)

	_, err = h.wallets.GetWallet(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrWalletNotFound)
}

func TestDeleteAllLocalWalletsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newWalletHarness()
	_, _, err := h.wallets.CreateWallet(ctx, []byte("pw"))
	require.NoError(t, err)

	require.NoError(t, h.wallets.DeleteAllLocalWalletsData(ctx))
	require.True(t, h.keys.deleted)

	records, err := h.wallets.AvailableWallets(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestWalletKeyFailuresAreClassified(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newWalletHarness()
	h.keys.err = networkErr()

	_, _, err := h.wallets.CreateWallet(ctx, []byte("pw"))
	require.ErrorIs(t, err, domain.ErrNetwork)

	_, err = h.wallets.WalletRestoreWords(ctx, "pk", []byte("s"), []byte("pw"))
	require.ErrorIs(t, err, domain.ErrNetwork)

	h.keys.err = &domain.LedgerError{Code: "INVALID_MNEMONIC"}
	_, err = h.wallets.ImportWallet(ctx, []string{"x"}, []byte("pw"))
	require.ErrorIs(t, err, domain.ErrGeneric)
}

func TestDecryptWalletSecret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"mismatch", domain.ErrPublicKeyMismatch, domain.ErrPublicKeyMismatch},
		{"cancelled", domain.ErrCancelled, domain.ErrCancelled},
		{"context cancelled", context.Canceled, domain.ErrCancelled},
		{"other", errors.New("bad tag"), domain.ErrSecretDecryptionFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newWalletHarness()
			h.keychain.decryptErr = tc.err

			_, err := h.wallets.DecryptWalletSecret(context.Background(), domain.WalletInfo{})
			require.ErrorIs(t, err, tc.want)
		})
	}

	h := newWalletHarness()
	secret, err := h.wallets.DecryptWalletSecret(context.Background(), domain.WalletInfo{
		EncryptedSecret: domain.EncryptedSecret{Data: []byte("sealed:abc")},
	})
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), secret)
}
