// internal/domain/store.go
package domain

import (
	"context"
)

// RecordMutator receives the current record (nil when absent) and returns the
// replacement. Returning nil removes the record. Returning an error aborts the
// update without writing anything.
type RecordMutator func(current *WalletRecord) (*WalletRecord, error)

// WalletRecordStore is the typed repository over the wallet collection.
// Update runs as one atomic read-modify-write per public key.
type WalletRecordStore interface {
	// Read returns the cached state of a wallet, nil when the wallet or its state is absent
	Read(ctx context.Context, publicKey WalletPublicKey) (*CombinedWalletState, error)

	// ReadAll returns every record in insertion order
	ReadAll(ctx context.Context) ([]*WalletRecord, error)

	// Update applies mutator atomically and returns the stored result
	Update(ctx context.Context, publicKey WalletPublicKey, mutator RecordMutator) (*WalletRecord, error)

	// Reset atomically replaces the whole collection
	Reset(ctx context.Context, records []*WalletRecord) error
}

// EventPublisher fans wallet changes out to other services
type EventPublisher interface {
	PublishStateUpdated(ctx context.Context, publicKey WalletPublicKey, state *CombinedWalletState)
	PublishTransactionSent(ctx context.Context, publicKey WalletPublicKey, pending PendingWalletTransaction)
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishStateUpdated(context.Context, WalletPublicKey, *CombinedWalletState) {}

func (NopPublisher) PublishTransactionSent(context.Context, WalletPublicKey, PendingWalletTransaction) {
}
