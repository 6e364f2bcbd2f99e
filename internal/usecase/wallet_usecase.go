// internal/usecase/wallet_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
)

// WalletUsecase owns the wallet collection: creation, import, export
// confirmation and wipe. Key material is handled by the ledger key manager
// and the keychain.
type WalletUsecase struct {
	store     domain.WalletRecordStore
	keys      domain.LedgerKeyManager
	keychain  domain.Keychain
	addresses *AddressBook
	logger    *zap.Logger
}

func NewWalletUsecase(
	store domain.WalletRecordStore,
	keys domain.LedgerKeyManager,
	keychain domain.Keychain,
	addresses *AddressBook,
	logger *zap.Logger,
) *WalletUsecase {
	return &WalletUsecase{
		store:     store,
		keys:      keys,
		keychain:  keychain,
		addresses: addresses,
		logger:    logger,
	}
}

// CreateWallet generates a new key and replaces the collection with it.
// The returned words must be shown to the user, who then confirms the export.
func (uc *WalletUsecase) CreateWallet(ctx context.Context, localPassword []byte) (*domain.WalletInfo, []string, error) {
	uc.logger.Info("Creating wallet")

	// 1. Generate key
	key, err := uc.keys.CreateKey(ctx, localPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create key: %w", classifyFetchError(err))
	}

	// 2. Seal secret
	encrypted, err := uc.keychain.Encrypt(ctx, key.Secret)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt wallet secret: %w", err)
	}

	// 3. Mnemonic for backup
	words, err := uc.keys.ExportKey(ctx, *key, localPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to export key: %w", classifyFetchError(err))
	}

	// 4. Store
	info := domain.WalletInfo{PublicKey: key.PublicKey, EncryptedSecret: encrypted}
	if err := uc.store.Reset(ctx, []*domain.WalletRecord{{Info: info}}); err != nil {
		return nil, nil, fmt.Errorf("failed to save wallet: %w", err)
	}

	uc.logger.Info("Wallet created", zap.String("public_key", shortKey(info.PublicKey)))

	return &info, words, nil
}

// ImportWallet restores a wallet from its mnemonic. Imported wallets need no
// export confirmation.
func (uc *WalletUsecase) ImportWallet(ctx context.Context, wordList []string, localPassword []byte) (*domain.WalletInfo, error) {
	uc.logger.Info("Importing wallet", zap.Int("words", len(wordList)))

	key, err := uc.keys.ImportKey(ctx, localPassword, wordList)
	if err != nil {
		return nil, fmt.Errorf("failed to import key: %w", classifyFetchError(err))
	}

	encrypted, err := uc.keychain.Encrypt(ctx, key.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt wallet secret: %w", err)
	}

	info := domain.WalletInfo{PublicKey: key.PublicKey, EncryptedSecret: encrypted}
	if err := uc.store.Reset(ctx, []*domain.WalletRecord{{Info: info, ExportCompleted: true}}); err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}

	uc.logger.Info("Wallet imported", zap.String("public_key", shortKey(info.PublicKey)))

	return &info, nil
}

// ConfirmWalletExported marks the wallet's mnemonic as backed up
func (uc *WalletUsecase) ConfirmWalletExported(ctx context.Context, publicKey domain.WalletPublicKey) error {
	_, err := uc.store.Update(ctx, publicKey, func(current *domain.WalletRecord) (*domain.WalletRecord, error) {
		if current == nil {
			return nil, domain.ErrWalletNotFound
		}
		updated := current.Clone()
		updated.ExportCompleted = true
		return updated, nil
	})
	if err != nil {
		return fmt.Errorf("failed to confirm export: %w", err)
	}
	return nil
}

// AvailableWallets lists stored wallets in insertion order
func (uc *WalletUsecase) AvailableWallets(ctx context.Context) ([]*domain.WalletRecord, error) {
	records, err := uc.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return records, nil
}

// GetWallet returns the stored record for publicKey
func (uc *WalletUsecase) GetWallet(ctx context.Context, publicKey domain.WalletPublicKey) (*domain.WalletRecord, error) {
	records, err := uc.AvailableWallets(ctx)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.Info.PublicKey == publicKey {
			return record, nil
		}
	}
	return nil, domain.ErrWalletNotFound
}

// DeleteAllLocalWalletsData drops every key from the ledger client, then
// empties the collection together with all cached states
func (uc *WalletUsecase) DeleteAllLocalWalletsData(ctx context.Context) error {
	uc.logger.Warn("Deleting all local wallet data")

	if err := uc.keys.DeleteAllKeys(ctx); err != nil {
		return fmt.Errorf("failed to delete keys: %w", classifyFetchError(err))
	}
	if err := uc.store.Reset(ctx, nil); err != nil {
		return fmt.Errorf("failed to clear wallets: %w", err)
	}
	uc.addresses.Forget()

	return nil
}

// WalletRestoreWords exports the mnemonic of a wallet
func (uc *WalletUsecase) WalletRestoreWords(
	ctx context.Context,
	publicKey domain.WalletPublicKey,
	decryptedSecret []byte,
	localPassword []byte,
) ([]string, error) {

	words, err := uc.keys.ExportKey(ctx, domain.LedgerKey{
		PublicKey: publicKey,
		Secret:    decryptedSecret,
	}, localPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to export key: %w", classifyFetchError(err))
	}
	return words, nil
}

// DecryptWalletSecret opens the wallet's sealed secret through the keychain
func (uc *WalletUsecase) DecryptWalletSecret(ctx context.Context, info domain.WalletInfo) ([]byte, error) {
	secret, err := uc.keychain.Decrypt(ctx, info.EncryptedSecret)
	if err == nil {
		return secret, nil
	}

	switch {
	case errors.Is(err, domain.ErrPublicKeyMismatch),
		errors.Is(err, domain.ErrCancelled),
		errors.Is(err, domain.ErrSecretDecryptionFailed):
		return nil, err
	case isContextError(err):
		return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, err)
	default:
		return nil, fmt.Errorf("%w: %w", domain.ErrSecretDecryptionFailed, err)
	}
}
