// internal/handler/grpc_types.go
package handler

import (
	"wallet-sync-service/internal/domain"
)

// Messages of walletsync.v1.WalletSyncService, carried by the JSON codec

type GetCachedStateRequest struct {
	PublicKey string `json:"public_key"`
}

type GetCachedStateResponse struct {
	State *domain.CombinedWalletState `json:"state,omitempty"`
}

// RefreshStateRequest names either a stored wallet or a bare address
type RefreshStateRequest struct {
	PublicKey  string `json:"public_key,omitempty"`
	Address    string `json:"address,omitempty"`
	OnlyCached bool   `json:"only_cached"`
}

type RefreshStateResponse struct {
	Kind  domain.StateResultKind      `json:"kind"`
	State *domain.CombinedWalletState `json:"state,omitempty"`
}

type SendTransactionRequest struct {
	PublicKey     string `json:"public_key"`
	LocalPassword []byte `json:"local_password"`
	ToAddress     string `json:"to_address"`
	Amount        int64  `json:"amount"`
	// AmountCoins is used when Amount is zero, e.g. "1.5"
	AmountCoins string `json:"amount_coins,omitempty"`
	Comment     []byte `json:"comment,omitempty"`
	Force       bool   `json:"force"`
	Timeout     int32  `json:"timeout"`
	RandomID    int64  `json:"random_id"`
}

type SendTransactionResponse struct {
	PendingTransactions []domain.PendingWalletTransaction `json:"pending_transactions"`
}

type ListWalletsRequest struct{}

type WalletSummary struct {
	PublicKey       string `json:"public_key"`
	ExportCompleted bool   `json:"export_completed"`
	Balance         *int64 `json:"balance,omitempty"`
	SyncTimestamp   int64  `json:"sync_timestamp,omitempty"`
}

type ListWalletsResponse struct {
	Wallets []WalletSummary `json:"wallets"`
}

type ConfirmWalletExportedRequest struct {
	PublicKey string `json:"public_key"`
}

type ConfirmWalletExportedResponse struct{}

type CreateWalletRequest struct {
	LocalPassword []byte `json:"local_password"`
}

// CreateWalletResponse carries the mnemonic once; the caller confirms the
// backup with ConfirmWalletExported
type CreateWalletResponse struct {
	PublicKey string   `json:"public_key"`
	Words     []string `json:"words"`
}

type ImportWalletRequest struct {
	Words         []string `json:"words"`
	LocalPassword []byte   `json:"local_password"`
}

type ImportWalletResponse struct {
	PublicKey string `json:"public_key"`
}

type DeleteAllWalletsRequest struct{}

type DeleteAllWalletsResponse struct{}

type WalletRestoreWordsRequest struct {
	PublicKey     string `json:"public_key"`
	LocalPassword []byte `json:"local_password"`
}

type WalletRestoreWordsResponse struct {
	Words []string `json:"words"`
}

// ============================================================================
// Conversions
// ============================================================================

func recordToSummary(record *domain.WalletRecord) WalletSummary {
	summary := WalletSummary{
		PublicKey:       record.Info.PublicKey.String(),
		ExportCompleted: record.ExportCompleted,
	}
	if record.State != nil {
		balance := record.State.WalletState.Balance
		summary.Balance = &balance
		summary.SyncTimestamp = record.State.Timestamp
	}
	return summary
}

func recordsToSummaries(records []*domain.WalletRecord) []WalletSummary {
	out := make([]WalletSummary, 0, len(records))
	for _, record := range records {
		out = append(out, recordToSummary(record))
	}
	return out
}
