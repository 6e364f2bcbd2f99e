// internal/usecase/pending_tracker.go
package usecase

import (
	"github.com/lightningnetwork/lnd/fn/v2"

	"wallet-sync-service/internal/domain"
)

// RetainPending drops every pending transaction that has expired against the
// ledger clock, fell behind the oldest confirmed transaction, or shows up as a
// confirmed message. Survivors keep their relative order.
func RetainPending(
	pending []domain.PendingWalletTransaction,
	confirmedTop []domain.WalletTransaction,
	lastTransactionTimestamp fn.Option[int64],
	syncTime int64,
) []domain.PendingWalletTransaction {

	confirmed := confirmedBodyHashes(confirmedTop)

	retained := make([]domain.PendingWalletTransaction, 0, len(pending))
	for _, p := range pending {
		if p.ValidUntilTimestamp <= syncTime {
			continue
		}
		if lastTransactionTimestamp.IsSome() &&
			p.ValidUntilTimestamp <= lastTransactionTimestamp.UnwrapOr(0) {
			continue
		}
		if _, ok := confirmed[string(p.BodyHash)]; ok {
			continue
		}
		retained = append(retained, p)
	}
	return retained
}

// oldestTimestamp returns the timestamp of the last entry of a newest-first page
func oldestTimestamp(transactions []domain.WalletTransaction) fn.Option[int64] {
	if len(transactions) == 0 {
		return fn.None[int64]()
	}
	return fn.Some(transactions[len(transactions)-1].Timestamp)
}

func confirmedBodyHashes(transactions []domain.WalletTransaction) map[string]struct{} {
	hashes := make(map[string]struct{})
	for _, tx := range transactions {
		if tx.InMessage != nil {
			hashes[string(tx.InMessage.BodyHash)] = struct{}{}
		}
		for _, out := range tx.OutMessages {
			hashes[string(out.BodyHash)] = struct{}{}
		}
	}
	return hashes
}
