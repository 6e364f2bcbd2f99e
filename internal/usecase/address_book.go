// internal/usecase/address_book.go
package usecase

import (
	"context"
	"fmt"
	"sync"

	"wallet-sync-service/internal/domain"
)

// AddressBook caches ledger addresses by public key.
// Addresses are derived deterministically and never change once resolved.
type AddressBook struct {
	ledger domain.LedgerClient

	mu        sync.RWMutex
	addresses map[domain.WalletPublicKey]string
}

func NewAddressBook(ledger domain.LedgerClient) *AddressBook {
	return &AddressBook{
		ledger:    ledger,
		addresses: make(map[domain.WalletPublicKey]string),
	}
}

// Resolve returns the address of publicKey, asking the ledger only once
func (b *AddressBook) Resolve(ctx context.Context, publicKey domain.WalletPublicKey) (string, error) {
	b.mu.RLock()
	address, ok := b.addresses[publicKey]
	b.mu.RUnlock()
	if ok {
		return address, nil
	}

	address, err := b.ledger.WalletAddress(ctx, publicKey)
	if err != nil {
		return "", fmt.Errorf("failed to resolve wallet address: %w", classifyFetchError(err))
	}

	b.mu.Lock()
	b.addresses[publicKey] = address
	b.mu.Unlock()

	return address, nil
}

// Forget drops every cached address
func (b *AddressBook) Forget() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.addresses)
}
