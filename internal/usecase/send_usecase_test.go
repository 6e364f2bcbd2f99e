package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wallet-sync-service/internal/domain"
)

func sendRequest(info domain.WalletInfo) *SendRequest {
	return &SendRequest{
		Wallet:          info,
		DecryptedSecret: []byte("secret"),
		LocalPassword:   []byte("pw"),
		ToAddress:       "EQ-destination",
		Amount:          1_500_000_000,
		Comment:         []byte("thanks"),
		Timeout:         60,
		RandomID:        42,
	}
}

func TestSendPrependsPending(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	info := h.seed(t, "pk", cachedState())
	h.clock.SetTime(testStart.Add(5 * time.Second))
	h.ledger.sendResult = &domain.SendGramsResult{SentUntil: 9_999, BodyHash: []byte("body-new")}

	pending, err := h.send.Send(context.Background(), sendRequest(info))
	require.NoError(t, err)
	require.Len(t, pending, 4)

	first := pending[0]
	require.Equal(t, "body-new", string(first.BodyHash))
	require.EqualValues(t, 9_999, first.ValidUntilTimestamp)
	require.Equal(t, testStart.Add(5*time.Second).Unix(), first.Timestamp)
	require.Equal(t, "EQ-destination", first.Address)
	require.EqualValues(t, 1_500_000_000, first.Value)
	require.Equal(t, []byte("thanks"), first.Comment)

	// Visible first on the next read.
	stored, err := h.store.Read(context.Background(), "pk")
	require.NoError(t, err)
	require.Equal(t, "body-new", string(stored.PendingTransactions[0].BodyHash))
	require.Equal(t, "p-live", string(stored.PendingTransactions[1].BodyHash))

	require.Len(t, h.ledger.sendRequests, 1)
	req := h.ledger.sendRequests[0]
	require.Equal(t, h.ledger.address, req.FromAddress)
	require.Equal(t, domain.WalletPublicKey("pk"), req.Key.PublicKey)
	require.Equal(t, []byte("secret"), req.Key.Secret)
	require.EqualValues(t, 42, req.RandomID)
	require.Len(t, h.publisher.sent, 1)
}

func TestSendIntoRecordWithoutState(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	info := h.seed(t, "pk", nil)
	h.ledger.sendResult = &domain.SendGramsResult{SentUntil: 9_999, BodyHash: []byte("body")}

	pending, err := h.send.Send(context.Background(), sendRequest(info))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, []byte("body"), pending[0].BodyHash)

	// No state until the first successful remote fetch.
	stored, err := h.store.Read(context.Background(), "pk")
	require.NoError(t, err)
	require.Nil(t, stored)

	results, err := collect(h.sync.Refresh(context.Background(), domain.SubjectWallet(info), true))
	require.NoError(t, err)
	require.Equal(t, []domain.StateResult{domain.Cached(nil)}, results)

	records, err := h.store.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Nil(t, records[0].State)
}

func TestSendUnknownWalletIsNotStored(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.ledger.sendResult = &domain.SendGramsResult{SentUntil: 9_999, BodyHash: []byte("body")}

	pending, err := h.send.Send(context.Background(), sendRequest(domain.WalletInfo{PublicKey: "ghost"}))
	require.NoError(t, err)
	require.Len(t, pending, 1)

	records, err := h.store.ReadAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestSendErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"invalid address", &domain.LedgerError{Code: "INVALID_ACCOUNT_ADDRESS"}, domain.ErrInvalidAddress},
		{"uninitialized destination", &domain.LedgerError{Code: "DANGEROUS_TRANSACTION"}, domain.ErrDestinationNotInitialized},
		{"message too long", &domain.LedgerError{Code: "MESSAGE_TOO_LONG"}, domain.ErrMessageTooLong},
		{"not enough funds", &domain.LedgerError{Code: "NOT_ENOUGH_FUNDS"}, domain.ErrNotEnoughFunds},
		{"network", networkErr(), domain.ErrNetwork},
		{"other lite server failure", &domain.LedgerError{Code: "LITE_SERVER_UNKNOWN"}, domain.ErrNetwork},
		{"unknown code", &domain.LedgerError{Code: "SOMETHING_ELSE"}, domain.ErrGeneric},
		{"untyped error", errors.New("boom"), domain.ErrGeneric},
		{"from text", domain.NewLedgerErrorFromText("NOT_ENOUGH_FUNDS: balance 0"), domain.ErrNotEnoughFunds},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			info := h.seed(t, "pk", cachedState())
			h.ledger.sendErr = tc.err

			_, err := h.send.Send(context.Background(), sendRequest(info))
			require.ErrorIs(t, err, tc.want)

			// Never retried, nothing recorded.
			require.Len(t, h.ledger.sendRequests, 1)
			stored, err := h.store.Read(context.Background(), "pk")
			require.NoError(t, err)
			require.Len(t, stored.PendingTransactions, 3)
			require.Empty(t, h.publisher.sent)
		})
	}
}

func TestSendAddressFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	info := h.seed(t, "pk", cachedState())
	h.ledger.addressErr = networkErr()

	_, err := h.send.Send(context.Background(), sendRequest(info))
	require.ErrorIs(t, err, domain.ErrNetwork)
	require.Empty(t, h.ledger.sendRequests)
}

func TestSendThenRefreshKeepsPendingUntilMined(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	info := h.seed(t, "pk", &domain.CombinedWalletState{
		WalletState:         domain.WalletState{Balance: 10},
		Timestamp:           100,
		TopTransactions:     []domain.WalletTransaction{},
		PendingTransactions: []domain.PendingWalletTransaction{},
	})
	h.ledger.sendResult = &domain.SendGramsResult{SentUntil: 2_000, BodyHash: []byte("body")}

	_, err := h.send.Send(context.Background(), sendRequest(info))
	require.NoError(t, err)

	// Not mined yet.
	h.ledger.account = &domain.AccountState{Balance: 10, LastTransactionID: txIDPtr(1), SyncTime: 500}
	h.ledger.pages[txID(1).Key()] = []domain.WalletTransaction{makeTx(1, 450)}

	state, err := h.sync.RefreshAndStore(context.Background(), domain.SubjectWallet(info))
	require.NoError(t, err)
	require.Len(t, state.PendingTransactions, 1)

	// Mined.
	h.ledger.account = &domain.AccountState{Balance: 8, LastTransactionID: txIDPtr(2), SyncTime: 520}
	h.ledger.pages[txID(2).Key()] = []domain.WalletTransaction{makeTx(2, 510, "body")}

	state, err = h.sync.RefreshAndStore(context.Background(), domain.SubjectWallet(info))
	require.NoError(t, err)
	require.Empty(t, state.PendingTransactions)
}
