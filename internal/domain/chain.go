// internal/domain/chain.go
package domain

import (
	"context"
)

// LedgerClient is the network-facing part of the external ledger client.
// Implementations report failures as *LedgerError.
type LedgerClient interface {
	// WalletAddress derives the ledger address of a public key
	WalletAddress(ctx context.Context, publicKey WalletPublicKey) (string, error)

	// GetAccountState returns balance, last transaction id and the ledger sync time
	GetAccountState(ctx context.Context, address string) (*AccountState, error)

	// GetTransactions returns one page of history starting at (and including) from
	GetTransactions(ctx context.Context, address string, from WalletTransactionID) ([]WalletTransaction, error)

	// SendGrams builds, signs and broadcasts an outgoing transfer
	SendGrams(ctx context.Context, req *SendGramsRequest) (*SendGramsResult, error)
}

// LedgerKeyManager owns key generation and mnemonic export
type LedgerKeyManager interface {
	CreateKey(ctx context.Context, localPassword []byte) (*LedgerKey, error)
	ImportKey(ctx context.Context, localPassword []byte, wordList []string) (*LedgerKey, error)
	ExportKey(ctx context.Context, key LedgerKey, localPassword []byte) ([]string, error)
	DeleteAllKeys(ctx context.Context) error
}

// Keychain seals wallet secrets.
// Decrypt fails with ErrPublicKeyMismatch, ErrCancelled or ErrSecretDecryptionFailed.
type Keychain interface {
	Encrypt(ctx context.Context, secret []byte) (EncryptedSecret, error)
	Decrypt(ctx context.Context, encrypted EncryptedSecret) ([]byte, error)
}

// SendGramsRequest carries everything the ledger needs to broadcast a transfer
type SendGramsRequest struct {
	Key                              LedgerKey
	LocalPassword                    []byte
	FromAddress                      string
	ToAddress                        string
	Amount                           int64
	TextMessage                      []byte
	ForceIfDestinationNotInitialized bool
	Timeout                          int32
	RandomID                         int64
}

// SendGramsResult is the broadcast acknowledgment
type SendGramsResult struct {
	SentUntil int64
	BodyHash  []byte
}
