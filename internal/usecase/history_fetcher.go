// internal/usecase/history_fetcher.go
package usecase

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
	"wallet-sync-service/internal/retry"
)

// HistoryFetcher loads the newest page of confirmed history for an address.
// The ledger may cut a page short at the boundary, so a second page is read
// from the last entry and merged in.
type HistoryFetcher struct {
	ledger domain.LedgerClient
	retry  *retry.Policy
	logger *zap.Logger
}

func NewHistoryFetcher(
	ledger domain.LedgerClient,
	retryPolicy *retry.Policy,
	logger *zap.Logger,
) *HistoryFetcher {
	return &HistoryFetcher{
		ledger: ledger,
		retry:  retryPolicy,
		logger: logger,
	}
}

// Fetch returns confirmed transactions newest first, starting at cursor.
// With no cursor the account's last transaction id is looked up first.
// Errors are classified as domain.ErrNetwork or domain.ErrGeneric.
func (f *HistoryFetcher) Fetch(
	ctx context.Context,
	address string,
	cursor fn.Option[domain.WalletTransactionID],
) ([]domain.WalletTransaction, error) {

	// 1. Resolve the starting cursor
	from := cursor.UnwrapOr(domain.WalletTransactionID{})
	if cursor.IsNone() {
		state, err := f.fetchAccountState(ctx, address)
		if err != nil {
			return nil, err
		}
		if state.LastTransactionID == nil {
			return []domain.WalletTransaction{}, nil
		}
		from = *state.LastTransactionID
	}

	// 2. First page
	first, err := f.fetchPage(ctx, address, from)
	if err != nil {
		return nil, err
	}
	if len(first) < 2 {
		return first, nil
	}

	// 3. Second page from the last entry of the first
	next := first[len(first)-1].TransactionID
	second, err := f.fetchPage(ctx, address, next)
	if err != nil {
		return nil, err
	}

	merged := mergeTransactionPages(first, second)

	f.logger.Debug("Fetched transaction history",
		zap.String("address", address),
		zap.Int("first_page", len(first)),
		zap.Int("second_page", len(second)),
		zap.Int("merged", len(merged)),
	)

	return merged, nil
}

func (f *HistoryFetcher) fetchAccountState(ctx context.Context, address string) (*domain.AccountState, error) {
	state, err := retry.Do(ctx, f.retry, "account_state", isNetworkError,
		func(ctx context.Context) (*domain.AccountState, error) {
			return f.ledger.GetAccountState(ctx, address)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account state: %w", classifyFetchError(err))
	}
	return state, nil
}

func (f *HistoryFetcher) fetchPage(
	ctx context.Context,
	address string,
	from domain.WalletTransactionID,
) ([]domain.WalletTransaction, error) {

	page, err := retry.Do(ctx, f.retry, "transactions_page", isNetworkError,
		func(ctx context.Context) ([]domain.WalletTransaction, error) {
			return f.ledger.GetTransactions(ctx, address, from)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions at lt %d: %w", from.LT, classifyFetchError(err))
	}
	return page, nil
}

// mergeTransactionPages appends the entries of second not already in first.
// Order within each page is kept and the result has no duplicate id.
func mergeTransactionPages(first, second []domain.WalletTransaction) []domain.WalletTransaction {
	seen := make(map[string]struct{}, len(first)+len(second))
	merged := make([]domain.WalletTransaction, 0, len(first)+len(second))

	for _, pages := range [][]domain.WalletTransaction{first, second} {
		for _, tx := range pages {
			key := tx.TransactionID.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, tx)
		}
	}
	return merged
}
