// internal/chains/ton/types.go
package ton

import (
	"encoding/json"

	"wallet-sync-service/internal/domain"
)

// RPC envelope
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	ID     uint64          `json:"id"`
}

// rpcError carries a ledger error code. Older bridges only send message.
type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) toLedgerError() *domain.LedgerError {
	if e.Code == "" {
		return domain.NewLedgerErrorFromText(e.Message)
	}
	return &domain.LedgerError{Code: e.Code, Message: e.Message}
}

// ============================================================================
// Wire objects
// ============================================================================

type transactionID struct {
	LT   int64  `json:"lt"`
	Hash []byte `json:"hash"`
}

type accountState struct {
	Balance           int64          `json:"balance"`
	LastTransactionID *transactionID `json:"last_transaction_id"`
	SyncUtime         int64          `json:"sync_utime"`
}

type message struct {
	Value       int64  `json:"value"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Message     string `json:"message"`
	BodyHash    []byte `json:"body_hash"`
}

type transaction struct {
	Data          []byte        `json:"data"`
	TransactionID transactionID `json:"transaction_id"`
	Utime         int64         `json:"utime"`
	StorageFee    int64         `json:"storage_fee"`
	OtherFee      int64         `json:"other_fee"`
	InMsg         *message      `json:"in_msg"`
	OutMsgs       []message     `json:"out_msgs"`
}

type keyObject struct {
	PublicKey string `json:"public_key"`
	Secret    []byte `json:"secret"`
}

type addressParams struct {
	PublicKey string `json:"public_key"`
}

type addressResult struct {
	Address string `json:"account_address"`
}

type accountParams struct {
	Address string `json:"account_address"`
}

type transactionsParams struct {
	Address string        `json:"account_address"`
	From    transactionID `json:"from_transaction_id"`
}

type transactionsResult struct {
	Transactions []transaction `json:"transactions"`
}

type sendParams struct {
	Key                 keyObject `json:"key"`
	LocalPassword       []byte    `json:"local_password"`
	Source              string    `json:"source"`
	Destination         string    `json:"destination"`
	Amount              int64     `json:"amount"`
	Message             []byte    `json:"message"`
	AllowSendToUninited bool      `json:"allow_send_to_uninited"`
	Timeout             int32     `json:"timeout"`
	RandomID            int64     `json:"random_id"`
}

type sendResult struct {
	SentUntil int64  `json:"sent_until"`
	BodyHash  []byte `json:"body_hash"`
}

type createKeyParams struct {
	LocalPassword []byte `json:"local_password"`
}

type importKeyParams struct {
	LocalPassword []byte   `json:"local_password"`
	WordList      []string `json:"word_list"`
}

type exportKeyParams struct {
	Key           keyObject `json:"key"`
	LocalPassword []byte    `json:"local_password"`
}

type exportKeyResult struct {
	WordList []string `json:"word_list"`
}

// ============================================================================
// Conversions
// ============================================================================

func (id *transactionID) toDomain() *domain.WalletTransactionID {
	if id == nil {
		return nil
	}
	return &domain.WalletTransactionID{LT: id.LT, TransactionHash: id.Hash}
}

func (m *message) toDomain() domain.WalletTransactionMessage {
	return domain.WalletTransactionMessage{
		Value:       m.Value,
		Source:      m.Source,
		Destination: m.Destination,
		TextMessage: m.Message,
		BodyHash:    m.BodyHash,
	}
}

func (t *transaction) toDomain() domain.WalletTransaction {
	tx := domain.WalletTransaction{
		Data:          t.Data,
		TransactionID: *t.TransactionID.toDomain(),
		Timestamp:     t.Utime,
		StorageFee:    t.StorageFee,
		OtherFee:      t.OtherFee,
		OutMessages:   make([]domain.WalletTransactionMessage, 0, len(t.OutMsgs)),
	}
	if t.InMsg != nil {
		in := t.InMsg.toDomain()
		tx.InMessage = &in
	}
	for i := range t.OutMsgs {
		tx.OutMessages = append(tx.OutMessages, t.OutMsgs[i].toDomain())
	}
	return tx
}
