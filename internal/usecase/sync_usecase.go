// internal/usecase/sync_usecase.go
package usecase

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
	"wallet-sync-service/internal/retry"
	"wallet-sync-service/pkg/utils"
)

var (
	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_refresh_total",
			Help: "Total number of state refreshes",
		},
		[]string{"subject", "outcome"},
	)

	refreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wallet_refresh_duration_seconds",
			Help:    "Duration of state refreshes that reached the ledger",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// SyncUsecase keeps the cached CombinedWalletState of each wallet in line
// with the ledger
type SyncUsecase struct {
	store     domain.WalletRecordStore
	ledger    domain.LedgerClient
	addresses *AddressBook
	history   *HistoryFetcher
	retry     *retry.Policy
	publisher domain.EventPublisher
	logger    *zap.Logger
}

func NewSyncUsecase(
	store domain.WalletRecordStore,
	ledger domain.LedgerClient,
	addresses *AddressBook,
	history *HistoryFetcher,
	retryPolicy *retry.Policy,
	publisher domain.EventPublisher,
	logger *zap.Logger,
) *SyncUsecase {
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	return &SyncUsecase{
		store:     store,
		ledger:    ledger,
		addresses: addresses,
		history:   history,
		retry:     retryPolicy,
		publisher: publisher,
		logger:    logger,
	}
}

// ============================================================================
// REFRESH
// ============================================================================

// Refresh yields the cached state, then (unless onlyCached) the state freshly
// fetched from the ledger. A failure is yielded once as the last value.
func (uc *SyncUsecase) Refresh(
	ctx context.Context,
	subject domain.StateSubject,
	onlyCached bool,
) iter.Seq2[domain.StateResult, error] {

	return func(yield func(domain.StateResult, error) bool) {
		cached, err := uc.ReadCached(ctx, subject)
		if err != nil {
			yield(domain.StateResult{}, err)
			return
		}
		if !yield(domain.Cached(cached), nil) || onlyCached {
			return
		}

		updated, err := uc.refresh(ctx, subject, cached)
		if err != nil {
			yield(domain.StateResult{}, err)
			return
		}
		yield(domain.Updated(updated), nil)
	}
}

// ReadCached returns the stored state of the subject without touching the
// network. Address subjects have no cache and always return nil.
func (uc *SyncUsecase) ReadCached(ctx context.Context, subject domain.StateSubject) (*domain.CombinedWalletState, error) {
	if err := validateSubject(subject); err != nil {
		return nil, err
	}
	if !subject.IsWallet() {
		return nil, nil
	}

	state, err := uc.store.Read(ctx, subject.Wallet.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached state: %w", err)
	}
	return state, nil
}

// RefreshAndStore fetches the subject's state from the ledger and, for
// wallets, persists it
func (uc *SyncUsecase) RefreshAndStore(ctx context.Context, subject domain.StateSubject) (*domain.CombinedWalletState, error) {
	cached, err := uc.ReadCached(ctx, subject)
	if err != nil {
		return nil, err
	}
	return uc.refresh(ctx, subject, cached)
}

func (uc *SyncUsecase) refresh(
	ctx context.Context,
	subject domain.StateSubject,
	cached *domain.CombinedWalletState,
) (state *domain.CombinedWalletState, err error) {

	label := "address"
	if subject.IsWallet() {
		label = "wallet"
	}

	start := time.Now()
	defer func() {
		refreshDuration.Observe(time.Since(start).Seconds())
		refreshTotal.WithLabelValues(label, errorOutcome(err)).Inc()
	}()

	if subject.IsWallet() {
		return uc.refreshWallet(ctx, *subject.Wallet, cached)
	}
	return uc.inspectAddress(ctx, subject.Address)
}

// refreshWallet runs the full reconcile for a stored wallet
func (uc *SyncUsecase) refreshWallet(
	ctx context.Context,
	info domain.WalletInfo,
	cached *domain.CombinedWalletState,
) (*domain.CombinedWalletState, error) {

	opID := utils.NewOperationID("rf")
	log := uc.logger.With(
		zap.String("op_id", opID),
		zap.String("public_key", shortKey(info.PublicKey)),
	)

	// 1. Resolve address
	address, err := uc.addresses.Resolve(ctx, info.PublicKey)
	if err != nil {
		log.Error("Failed to resolve address", zap.Error(err))
		return nil, err
	}

	// 2. Remote account state
	account, err := uc.fetchAccountState(ctx, address)
	if err != nil {
		log.Error("Failed to fetch account state", zap.String("address", address), zap.Error(err))
		return nil, err
	}

	// 3. History, unless nothing happened since the cached snapshot
	var top []domain.WalletTransaction
	if cached != nil && domain.SameTransactionID(cached.WalletState.LastTransactionID, account.LastTransactionID) {
		top = cached.TopTransactions
		log.Debug("History unchanged, reusing cached transactions")
	} else {
		top, err = uc.history.Fetch(ctx, address, fn.None[domain.WalletTransactionID]())
		if err != nil {
			log.Error("Failed to fetch history", zap.String("address", address), zap.Error(err))
			return nil, err
		}
	}

	// 4. Reconcile pending transactions
	lastTimestamp := oldestTimestamp(top)
	var pending []domain.PendingWalletTransaction
	if cached != nil {
		pending = cached.PendingTransactions
	}

	next := &domain.CombinedWalletState{
		WalletState: domain.WalletState{
			Balance:           account.Balance,
			LastTransactionID: account.LastTransactionID,
		},
		Timestamp:           account.SyncTime,
		TopTransactions:     top,
		PendingTransactions: RetainPending(pending, top, lastTimestamp, account.SyncTime),
	}

	// Nothing is written once the caller has gone away.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 5. Persist
	stored, err := uc.persist(ctx, info.PublicKey, next, lastTimestamp)
	if err != nil {
		log.Error("Failed to store refreshed state", zap.Error(err))
		return nil, err
	}

	log.Info("Wallet state refreshed",
		zap.String("address", address),
		zap.String("balance", utils.FormatBalance(stored.WalletState.Balance)),
		zap.Int("transactions", len(stored.TopTransactions)),
		zap.Int("pending", len(stored.PendingTransactions)),
		zap.Int64("sync_time", stored.Timestamp),
	)

	uc.publisher.PublishStateUpdated(ctx, info.PublicKey, stored)

	return stored, nil
}

// persist writes next into the wallet record. The pending list is filtered
// again from the record's current content so a concurrent send survives, and
// a stored state with a newer sync time wins over next.
func (uc *SyncUsecase) persist(
	ctx context.Context,
	publicKey domain.WalletPublicKey,
	next *domain.CombinedWalletState,
	lastTimestamp fn.Option[int64],
) (*domain.CombinedWalletState, error) {

	record, err := uc.store.Update(ctx, publicKey, func(current *domain.WalletRecord) (*domain.WalletRecord, error) {
		if current == nil {
			return nil, nil
		}

		updated := current.Clone()
		if updated.State != nil && updated.State.Timestamp > next.Timestamp {
			return updated, nil
		}

		state := next.Clone()
		state.PendingTransactions = []domain.PendingWalletTransaction{}
		if updated.State != nil {
			state.PendingTransactions = RetainPending(
				updated.State.PendingTransactions,
				next.TopTransactions,
				lastTimestamp,
				next.Timestamp,
			)
		}
		updated.State = state
		return updated, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet record: %w", err)
	}

	if record == nil || record.State == nil {
		uc.logger.Warn("Wallet record missing, refreshed state not stored",
			zap.String("public_key", shortKey(publicKey)),
		)
		return next, nil
	}
	return record.State, nil
}

// inspectAddress fetches the state of an arbitrary address without persistence
func (uc *SyncUsecase) inspectAddress(ctx context.Context, address string) (*domain.CombinedWalletState, error) {
	account, err := uc.fetchAccountState(ctx, address)
	if err != nil {
		uc.logger.Error("Failed to inspect address", zap.String("address", address), zap.Error(err))
		return nil, err
	}

	top := []domain.WalletTransaction{}
	if account.LastTransactionID != nil {
		top, err = uc.history.Fetch(ctx, address, fn.None[domain.WalletTransactionID]())
		if err != nil {
			uc.logger.Error("Failed to inspect address history", zap.String("address", address), zap.Error(err))
			return nil, err
		}
	}

	return &domain.CombinedWalletState{
		WalletState: domain.WalletState{
			Balance:           account.Balance,
			LastTransactionID: account.LastTransactionID,
		},
		Timestamp:           account.SyncTime,
		TopTransactions:     top,
		PendingTransactions: []domain.PendingWalletTransaction{},
	}, nil
}

func (uc *SyncUsecase) fetchAccountState(ctx context.Context, address string) (*domain.AccountState, error) {
	account, err := retry.Do(ctx, uc.retry, "account_state", isNetworkError,
		func(ctx context.Context) (*domain.AccountState, error) {
			return uc.ledger.GetAccountState(ctx, address)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account state: %w", classifyFetchError(err))
	}
	return account, nil
}

func validateSubject(subject domain.StateSubject) error {
	switch {
	case subject.IsWallet() && subject.Wallet.PublicKey == "":
		return fmt.Errorf("%w: empty public key", domain.ErrInvalidSubject)
	case !subject.IsWallet() && subject.Address == "":
		return fmt.Errorf("%w: empty address", domain.ErrInvalidSubject)
	}
	return nil
}
