// internal/repository/memory_repo.go
package repository

import (
	"context"
	"slices"
	"sync"

	"wallet-sync-service/internal/domain"
)

// MemoryWalletRepository keeps the collection in process memory.
// A single mutex serializes every update.
type MemoryWalletRepository struct {
	mu      sync.Mutex
	records map[domain.WalletPublicKey]*domain.WalletRecord
	order   []domain.WalletPublicKey
}

func NewMemoryWalletRepository() *MemoryWalletRepository {
	return &MemoryWalletRepository{
		records: make(map[domain.WalletPublicKey]*domain.WalletRecord),
	}
}

func (r *MemoryWalletRepository) Read(ctx context.Context, publicKey domain.WalletPublicKey) (*domain.CombinedWalletState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[publicKey]
	if !ok {
		return nil, nil
	}
	return record.State.Clone(), nil
}

func (r *MemoryWalletRepository) ReadAll(ctx context.Context) ([]*domain.WalletRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.WalletRecord, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.records[key].Clone())
	}
	return out, nil
}

func (r *MemoryWalletRepository) Update(
	ctx context.Context,
	publicKey domain.WalletPublicKey,
	mutator domain.RecordMutator,
) (*domain.WalletRecord, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.records[publicKey]
	next, err := mutator(current.Clone())
	if err != nil {
		return nil, err
	}
	if err := checkMutation(publicKey, next); err != nil {
		return nil, err
	}

	if next == nil {
		if exists {
			delete(r.records, publicKey)
			r.order = slices.DeleteFunc(r.order, func(k domain.WalletPublicKey) bool { return k == publicKey })
		}
		return nil, nil
	}

	if !exists {
		r.order = append(r.order, publicKey)
	}
	r.records[publicKey] = next.Clone()
	return next.Clone(), nil
}

func (r *MemoryWalletRepository) Reset(ctx context.Context, records []*domain.WalletRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = make(map[domain.WalletPublicKey]*domain.WalletRecord, len(records))
	r.order = r.order[:0]
	for _, record := range uniqueRecords(records) {
		r.records[record.Info.PublicKey] = record
		r.order = append(r.order, record.Info.PublicKey)
	}
	return nil
}
