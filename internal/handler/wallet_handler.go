// internal/handler/wallet_handler.go
package handler

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"wallet-sync-service/internal/domain"
	"wallet-sync-service/internal/usecase"
	"wallet-sync-service/pkg/utils"
)

// StateService reads and refreshes cached wallet state
type StateService interface {
	ReadCached(ctx context.Context, subject domain.StateSubject) (*domain.CombinedWalletState, error)
	Refresh(ctx context.Context, subject domain.StateSubject, onlyCached bool) iter.Seq2[domain.StateResult, error]
}

// TransferService broadcasts transfers
type TransferService interface {
	Send(ctx context.Context, req *usecase.SendRequest) ([]domain.PendingWalletTransaction, error)
}

// WalletService manages the wallet collection
type WalletService interface {
	AvailableWallets(ctx context.Context) ([]*domain.WalletRecord, error)
	GetWallet(ctx context.Context, publicKey domain.WalletPublicKey) (*domain.WalletRecord, error)
	ConfirmWalletExported(ctx context.Context, publicKey domain.WalletPublicKey) error
	DecryptWalletSecret(ctx context.Context, info domain.WalletInfo) ([]byte, error)
	CreateWallet(ctx context.Context, localPassword []byte) (*domain.WalletInfo, []string, error)
	ImportWallet(ctx context.Context, wordList []string, localPassword []byte) (*domain.WalletInfo, error)
	DeleteAllLocalWalletsData(ctx context.Context) error
	WalletRestoreWords(ctx context.Context, publicKey domain.WalletPublicKey, decryptedSecret, localPassword []byte) ([]string, error)
}

type WalletHandler struct {
	states    StateService
	transfers TransferService
	wallets   WalletService
	logger    *zap.Logger
}

var _ WalletSyncServer = (*WalletHandler)(nil)

func NewWalletHandler(
	states StateService,
	transfers TransferService,
	wallets WalletService,
	logger *zap.Logger,
) *WalletHandler {
	return &WalletHandler{
		states:    states,
		transfers: transfers,
		wallets:   wallets,
		logger:    logger,
	}
}

// GetCachedState returns the stored state of a wallet without network access
func (h *WalletHandler) GetCachedState(
	ctx context.Context,
	req *GetCachedStateRequest,
) (*GetCachedStateResponse, error) {

	if req.PublicKey == "" {
		return nil, status.Error(codes.InvalidArgument, "public_key is required")
	}

	state, err := h.cachedState(ctx, domain.WalletPublicKey(req.PublicKey))
	if err != nil {
		return nil, toStatus(err)
	}

	return &GetCachedStateResponse{State: state}, nil
}

// RefreshState streams the cached result and then the updated one
func (h *WalletHandler) RefreshState(req *RefreshStateRequest, stream RefreshStateStream) error {
	ctx := stream.Context()

	subject, err := h.resolveSubject(ctx, req.PublicKey, req.Address)
	if err != nil {
		return toStatus(err)
	}

	h.logger.Debug("RefreshState request",
		zap.String("public_key", req.PublicKey),
		zap.String("address", req.Address),
		zap.Bool("only_cached", req.OnlyCached),
	)

	for result, err := range h.states.Refresh(ctx, subject, req.OnlyCached) {
		if err != nil {
			h.logger.Warn("Refresh failed",
				zap.String("public_key", req.PublicKey),
				zap.String("address", req.Address),
				zap.Error(err),
			)
			return toStatus(err)
		}
		if err := stream.Send(&RefreshStateResponse{Kind: result.Kind, State: result.State}); err != nil {
			return err
		}
	}

	return nil
}

// SendTransaction decrypts the wallet secret and broadcasts a transfer
func (h *WalletHandler) SendTransaction(
	ctx context.Context,
	req *SendTransactionRequest,
) (*SendTransactionResponse, error) {

	// Validate request
	if req.PublicKey == "" {
		return nil, status.Error(codes.InvalidArgument, "public_key is required")
	}
	if req.ToAddress == "" {
		return nil, status.Error(codes.InvalidArgument, "to_address is required")
	}
	amount := req.Amount
	if amount == 0 && req.AmountCoins != "" {
		nano, err := utils.ParseBalance(req.AmountCoins)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		amount = nano
	}
	if amount <= 0 {
		return nil, status.Error(codes.InvalidArgument, "amount must be positive")
	}

	h.logger.Info("SendTransaction request",
		zap.String("public_key", req.PublicKey),
		zap.String("to_address", req.ToAddress),
		zap.String("amount", utils.FormatBalance(amount)),
	)

	record, err := h.wallets.GetWallet(ctx, domain.WalletPublicKey(req.PublicKey))
	if err != nil {
		return nil, toStatus(err)
	}

	secret, err := h.wallets.DecryptWalletSecret(ctx, record.Info)
	if err != nil {
		h.logger.Warn("Failed to decrypt wallet secret", zap.String("public_key", req.PublicKey), zap.Error(err))
		return nil, toStatus(err)
	}

	pending, err := h.transfers.Send(ctx, &usecase.SendRequest{
		Wallet:                           record.Info,
		DecryptedSecret:                  secret,
		LocalPassword:                    req.LocalPassword,
		ToAddress:                        req.ToAddress,
		Amount:                           amount,
		Comment:                          req.Comment,
		ForceIfDestinationNotInitialized: req.Force,
		Timeout:                          req.Timeout,
		RandomID:                         req.RandomID,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return &SendTransactionResponse{PendingTransactions: pending}, nil
}

func (h *WalletHandler) ListWallets(ctx context.Context, _ *ListWalletsRequest) (*ListWalletsResponse, error) {
	records, err := h.wallets.AvailableWallets(ctx)
	if err != nil {
		h.logger.Error("Failed to list wallets", zap.Error(err))
		return nil, toStatus(err)
	}
	return &ListWalletsResponse{Wallets: recordsToSummaries(records)}, nil
}

func (h *WalletHandler) ConfirmWalletExported(
	ctx context.Context,
	req *ConfirmWalletExportedRequest,
) (*ConfirmWalletExportedResponse, error) {

	if req.PublicKey == "" {
		return nil, status.Error(codes.InvalidArgument, "public_key is required")
	}
	if err := h.wallets.ConfirmWalletExported(ctx, domain.WalletPublicKey(req.PublicKey)); err != nil {
		return nil, toStatus(err)
	}
	return &ConfirmWalletExportedResponse{}, nil
}

// CreateWallet generates a new wallet, replacing any stored one
func (h *WalletHandler) CreateWallet(ctx context.Context, req *CreateWalletRequest) (*CreateWalletResponse, error) {
	info, words, err := h.wallets.CreateWallet(ctx, req.LocalPassword)
	if err != nil {
		h.logger.Error("Failed to create wallet", zap.Error(err))
		return nil, toStatus(err)
	}
	return &CreateWalletResponse{PublicKey: info.PublicKey.String(), Words: words}, nil
}

// ImportWallet restores a wallet from its mnemonic, replacing any stored one
func (h *WalletHandler) ImportWallet(ctx context.Context, req *ImportWalletRequest) (*ImportWalletResponse, error) {
	if len(req.Words) == 0 {
		return nil, status.Error(codes.InvalidArgument, "words are required")
	}

	info, err := h.wallets.ImportWallet(ctx, req.Words, req.LocalPassword)
	if err != nil {
		h.logger.Error("Failed to import wallet", zap.Error(err))
		return nil, toStatus(err)
	}
	return &ImportWalletResponse{PublicKey: info.PublicKey.String()}, nil
}

// DeleteAllWallets drops every key and every stored wallet
func (h *WalletHandler) DeleteAllWallets(ctx context.Context, _ *DeleteAllWalletsRequest) (*DeleteAllWalletsResponse, error) {
	if err := h.wallets.DeleteAllLocalWalletsData(ctx); err != nil {
		h.logger.Error("Failed to delete wallets", zap.Error(err))
		return nil, toStatus(err)
	}
	return &DeleteAllWalletsResponse{}, nil
}

// WalletRestoreWords decrypts the wallet secret and exports its mnemonic
func (h *WalletHandler) WalletRestoreWords(
	ctx context.Context,
	req *WalletRestoreWordsRequest,
) (*WalletRestoreWordsResponse, error) {

	if req.PublicKey == "" {
		return nil, status.Error(codes.InvalidArgument, "public_key is required")
	}

	record, err := h.wallets.GetWallet(ctx, domain.WalletPublicKey(req.PublicKey))
	if err != nil {
		return nil, toStatus(err)
	}

	secret, err := h.wallets.DecryptWalletSecret(ctx, record.Info)
	if err != nil {
		h.logger.Warn("Failed to decrypt wallet secret", zap.String("public_key", req.PublicKey), zap.Error(err))
		return nil, toStatus(err)
	}

	words, err := h.wallets.WalletRestoreWords(ctx, record.Info.PublicKey, secret, req.LocalPassword)
	if err != nil {
		return nil, toStatus(err)
	}
	return &WalletRestoreWordsResponse{Words: words}, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func (h *WalletHandler) cachedState(ctx context.Context, publicKey domain.WalletPublicKey) (*domain.CombinedWalletState, error) {
	record, err := h.wallets.GetWallet(ctx, publicKey)
	if err != nil {
		return nil, err
	}
	return h.states.ReadCached(ctx, domain.SubjectWallet(record.Info))
}

// resolveSubject turns a public key into the stored wallet it names, or
// falls back to a bare address
func (h *WalletHandler) resolveSubject(ctx context.Context, publicKey, address string) (domain.StateSubject, error) {
	switch {
	case publicKey != "" && address != "":
		return domain.StateSubject{}, fmt.Errorf("%w: public_key and address are exclusive", domain.ErrInvalidSubject)

	case publicKey != "":
		record, err := h.wallets.GetWallet(ctx, domain.WalletPublicKey(publicKey))
		if err != nil {
			return domain.StateSubject{}, err
		}
		return domain.SubjectWallet(record.Info), nil

	case address != "":
		return domain.SubjectAddress(address), nil
	}
	return domain.StateSubject{}, fmt.Errorf("%w: public_key or address is required", domain.ErrInvalidSubject)
}
