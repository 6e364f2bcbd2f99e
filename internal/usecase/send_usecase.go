// internal/usecase/send_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
	"wallet-sync-service/pkg/utils"
)

// errNoCachedState aborts a pending write into a wallet that was never synced
var errNoCachedState = errors.New("wallet has no cached state")

var sendTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wallet_send_total",
		Help: "Total number of outgoing transfers by outcome",
	},
	[]string{"outcome"},
)

// SendRequest describes one outgoing transfer
type SendRequest struct {
	Wallet                           domain.WalletInfo
	DecryptedSecret                  []byte
	LocalPassword                    []byte
	ToAddress                        string
	Amount                           int64
	Comment                          []byte
	ForceIfDestinationNotInitialized bool
	Timeout                          int32
	RandomID                         int64
}

// SendUsecase broadcasts transfers and records them as pending
type SendUsecase struct {
	store     domain.WalletRecordStore
	ledger    domain.LedgerClient
	addresses *AddressBook
	clock     clock.Clock
	publisher domain.EventPublisher
	logger    *zap.Logger
}

func NewSendUsecase(
	store domain.WalletRecordStore,
	ledger domain.LedgerClient,
	addresses *AddressBook,
	clk clock.Clock,
	publisher domain.EventPublisher,
	logger *zap.Logger,
) *SendUsecase {
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	return &SendUsecase{
		store:     store,
		ledger:    ledger,
		addresses: addresses,
		clock:     clk,
		publisher: publisher,
		logger:    logger,
	}
}

// Send broadcasts a transfer and returns the wallet's pending list with the
// new transaction first. A broadcast is never retried.
func (uc *SendUsecase) Send(ctx context.Context, req *SendRequest) (pending []domain.PendingWalletTransaction, err error) {
	defer func() {
		sendTotal.WithLabelValues(errorOutcome(err)).Inc()
	}()

	publicKey := req.Wallet.PublicKey
	log := uc.logger.With(
		zap.String("op_id", utils.NewOperationID("tx")),
		zap.String("public_key", shortKey(publicKey)),
	)

	// 1. Sender address
	fromAddress, err := uc.addresses.Resolve(ctx, publicKey)
	if err != nil {
		log.Error("Failed to resolve sender address", zap.Error(err))
		return nil, err
	}

	log.Info("Sending transfer",
		zap.String("from", fromAddress),
		zap.String("to", req.ToAddress),
		zap.String("amount", utils.FormatBalance(req.Amount)),
	)

	// 2. Broadcast
	result, err := uc.ledger.SendGrams(ctx, &domain.SendGramsRequest{
		Key: domain.LedgerKey{
			PublicKey: publicKey,
			Secret:    req.DecryptedSecret,
		},
		LocalPassword:                    req.LocalPassword,
		FromAddress:                      fromAddress,
		ToAddress:                        req.ToAddress,
		Amount:                           req.Amount,
		TextMessage:                      req.Comment,
		ForceIfDestinationNotInitialized: req.ForceIfDestinationNotInitialized,
		Timeout:                          req.Timeout,
		RandomID:                         req.RandomID,
	})
	if err != nil {
		err = classifySendError(err)
		log.Error("Broadcast failed", zap.String("to", req.ToAddress), zap.Error(err))
		return nil, fmt.Errorf("failed to send transfer: %w", err)
	}

	tx := domain.PendingWalletTransaction{
		Timestamp:           uc.clock.Now().Unix(),
		ValidUntilTimestamp: result.SentUntil,
		BodyHash:            result.BodyHash,
		Address:             req.ToAddress,
		Value:               req.Amount,
		Comment:             req.Comment,
	}

	// 3. Record as pending. The broadcast already happened, so a cancelled
	// caller does not stop this write.
	pending, err = uc.recordPending(context.WithoutCancel(ctx), publicKey, tx)
	if err != nil {
		log.Error("Failed to record pending transfer", zap.Error(err))
		return nil, err
	}

	log.Info("Transfer sent",
		zap.Int64("valid_until", tx.ValidUntilTimestamp),
		zap.Int("pending", len(pending)),
	)

	uc.publisher.PublishTransactionSent(ctx, publicKey, tx)

	return pending, nil
}

// recordPending prepends tx to the wallet's pending list in one atomic update
func (uc *SendUsecase) recordPending(
	ctx context.Context,
	publicKey domain.WalletPublicKey,
	tx domain.PendingWalletTransaction,
) ([]domain.PendingWalletTransaction, error) {

	record, err := uc.store.Update(ctx, publicKey, func(current *domain.WalletRecord) (*domain.WalletRecord, error) {
		// State only exists after a successful remote fetch
		if current == nil || current.State == nil {
			return nil, errNoCachedState
		}

		updated := current.Clone()

		pending := make([]domain.PendingWalletTransaction, 0, len(updated.State.PendingTransactions)+1)
		pending = append(pending, tx)
		pending = append(pending, updated.State.PendingTransactions...)
		updated.State.PendingTransactions = pending
		return updated, nil
	})
	if errors.Is(err, errNoCachedState) {
		uc.logger.Warn("No cached state for wallet, pending transfer not stored",
			zap.String("public_key", shortKey(publicKey)),
		)
		return []domain.PendingWalletTransaction{tx}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet record: %w", err)
	}
	return record.State.PendingTransactions, nil
}
