// internal/chains/ton/ledger.go
package ton

import (
	"context"

	"wallet-sync-service/internal/domain"
)

var (
	_ domain.LedgerClient     = (*Client)(nil)
	_ domain.LedgerKeyManager = (*Client)(nil)
)

// ============================================================================
// LEDGER
// ============================================================================

func (c *Client) WalletAddress(ctx context.Context, publicKey domain.WalletPublicKey) (string, error) {
	var res addressResult
	if err := c.call(ctx, "wallet.address", addressParams{PublicKey: publicKey.String()}, &res); err != nil {
		return "", err
	}
	return res.Address, nil
}

func (c *Client) GetAccountState(ctx context.Context, address string) (*domain.AccountState, error) {
	var res accountState
	if err := c.call(ctx, "account.state", accountParams{Address: address}, &res); err != nil {
		return nil, err
	}
	return &domain.AccountState{
		Balance:           res.Balance,
		LastTransactionID: res.LastTransactionID.toDomain(),
		SyncTime:          res.SyncUtime,
	}, nil
}

func (c *Client) GetTransactions(
	ctx context.Context,
	address string,
	from domain.WalletTransactionID,
) ([]domain.WalletTransaction, error) {

	params := transactionsParams{
		Address: address,
		From:    transactionID{LT: from.LT, Hash: from.TransactionHash},
	}

	var res transactionsResult
	if err := c.call(ctx, "transactions.list", params, &res); err != nil {
		return nil, err
	}

	out := make([]domain.WalletTransaction, 0, len(res.Transactions))
	for i := range res.Transactions {
		out = append(out, res.Transactions[i].toDomain())
	}
	return out, nil
}

func (c *Client) SendGrams(ctx context.Context, req *domain.SendGramsRequest) (*domain.SendGramsResult, error) {
	params := sendParams{
		Key:                 keyObject{PublicKey: req.Key.PublicKey.String(), Secret: req.Key.Secret},
		LocalPassword:       req.LocalPassword,
		Source:              req.FromAddress,
		Destination:         req.ToAddress,
		Amount:              req.Amount,
		Message:             req.TextMessage,
		AllowSendToUninited: req.ForceIfDestinationNotInitialized,
		Timeout:             req.Timeout,
		RandomID:            req.RandomID,
	}

	var res sendResult
	if err := c.call(ctx, "grams.send", params, &res); err != nil {
		return nil, err
	}
	return &domain.SendGramsResult{SentUntil: res.SentUntil, BodyHash: res.BodyHash}, nil
}

// ============================================================================
// KEYS
// ============================================================================

func (c *Client) CreateKey(ctx context.Context, localPassword []byte) (*domain.LedgerKey, error) {
	var res keyObject
	if err := c.call(ctx, "key.create", createKeyParams{LocalPassword: localPassword}, &res); err != nil {
		return nil, err
	}
	return &domain.LedgerKey{PublicKey: domain.WalletPublicKey(res.PublicKey), Secret: res.Secret}, nil
}

func (c *Client) ImportKey(ctx context.Context, localPassword []byte, wordList []string) (*domain.LedgerKey, error) {
	var res keyObject
	params := importKeyParams{LocalPassword: localPassword, WordList: wordList}
	if err := c.call(ctx, "key.import", params, &res); err != nil {
		return nil, err
	}
	return &domain.LedgerKey{PublicKey: domain.WalletPublicKey(res.PublicKey), Secret: res.Secret}, nil
}

func (c *Client) ExportKey(ctx context.Context, key domain.LedgerKey, localPassword []byte) ([]string, error) {
	var res exportKeyResult
	params := exportKeyParams{
		Key:           keyObject{PublicKey: key.PublicKey.String(), Secret: key.Secret},
		LocalPassword: localPassword,
	}
	if err := c.call(ctx, "key.export", params, &res); err != nil {
		return nil, err
	}
	return res.WordList, nil
}

func (c *Client) DeleteAllKeys(ctx context.Context) error {
	return c.call(ctx, "keys.deleteAll", struct{}{}, nil)
}
