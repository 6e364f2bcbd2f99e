// internal/domain/transaction.go
package domain

import (
	"bytes"
	"encoding/hex"
	"strconv"
)

// WalletTransactionID identifies one ledger transaction: logical time plus hash.
// It is the pagination cursor and the dedup key.
type WalletTransactionID struct {
	LT              int64  `json:"lt"`
	TransactionHash []byte `json:"transactionHash"`
}

// Equal reports exact tuple equality
func (id WalletTransactionID) Equal(other WalletTransactionID) bool {
	return id.LT == other.LT && bytes.Equal(id.TransactionHash, other.TransactionHash)
}

// Key returns a comparable form usable as a map key
func (id WalletTransactionID) Key() string {
	return strconv.FormatInt(id.LT, 10) + ":" + hex.EncodeToString(id.TransactionHash)
}

// SameTransactionID compares two optional ids; two absent ids are equal
func SameTransactionID(a, b *WalletTransactionID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// WalletTransactionMessage is one inbound or outbound message of a transaction
type WalletTransactionMessage struct {
	Value       int64  `json:"value"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	TextMessage string `json:"textMessage"`
	BodyHash    []byte `json:"bodyHash"`
}

// WalletTransaction is a confirmed ledger transaction
type WalletTransaction struct {
	Data          []byte                     `json:"data"`
	TransactionID WalletTransactionID        `json:"transactionId"`
	Timestamp     int64                      `json:"timestamp"`
	StorageFee    int64                      `json:"storageFee"`
	OtherFee      int64                      `json:"otherFee"`
	InMessage     *WalletTransactionMessage  `json:"inMessage,omitempty"`
	OutMessages   []WalletTransactionMessage `json:"outMessages"`
}

// TransferredValueWithoutFees is inMessage.value minus the sum of outMessages values
func (t *WalletTransaction) TransferredValueWithoutFees() int64 {
	var value int64
	if t.InMessage != nil {
		value += t.InMessage.Value
	}
	for _, message := range t.OutMessages {
		value -= message.Value
	}
	return value
}

// PendingWalletTransaction is a locally submitted, not yet confirmed transaction
type PendingWalletTransaction struct {
	Timestamp           int64  `json:"timestamp"`
	ValidUntilTimestamp int64  `json:"validUntilTimestamp"`
	BodyHash            []byte `json:"bodyHash"`
	Address             string `json:"address"`
	Value               int64  `json:"value"`
	Comment             []byte `json:"comment"`
}

func cloneTransaction(t WalletTransaction) WalletTransaction {
	out := t
	out.Data = cloneBytes(t.Data)
	out.TransactionID.TransactionHash = cloneBytes(t.TransactionID.TransactionHash)
	if t.InMessage != nil {
		in := *t.InMessage
		in.BodyHash = cloneBytes(in.BodyHash)
		out.InMessage = &in
	}
	if t.OutMessages != nil {
		out.OutMessages = make([]WalletTransactionMessage, len(t.OutMessages))
		for i, m := range t.OutMessages {
			m.BodyHash = cloneBytes(m.BodyHash)
			out.OutMessages[i] = m
		}
	}
	return out
}

func clonePending(p PendingWalletTransaction) PendingWalletTransaction {
	out := p
	out.BodyHash = cloneBytes(p.BodyHash)
	out.Comment = cloneBytes(p.Comment)
	return out
}
