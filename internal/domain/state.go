// internal/domain/state.go
package domain

// WalletState is the minimal remote snapshot of an account
type WalletState struct {
	Balance           int64                `json:"balance"`
	LastTransactionID *WalletTransactionID `json:"lastTransactionId,omitempty"`
}

// CombinedWalletState is the full cached view of a wallet.
// TopTransactions and PendingTransactions are ordered newest first.
type CombinedWalletState struct {
	WalletState         WalletState                `json:"walletState"`
	Timestamp           int64                      `json:"timestamp"`
	TopTransactions     []WalletTransaction        `json:"topTransactions"`
	PendingTransactions []PendingWalletTransaction `json:"pendingTransactions"`
}

// Clone returns a deep copy
func (s *CombinedWalletState) Clone() *CombinedWalletState {
	if s == nil {
		return nil
	}
	out := &CombinedWalletState{
		WalletState: WalletState{Balance: s.WalletState.Balance},
		Timestamp:   s.Timestamp,
	}
	if id := s.WalletState.LastTransactionID; id != nil {
		out.WalletState.LastTransactionID = &WalletTransactionID{
			LT:              id.LT,
			TransactionHash: cloneBytes(id.TransactionHash),
		}
	}
	if s.TopTransactions != nil {
		out.TopTransactions = make([]WalletTransaction, len(s.TopTransactions))
		for i, t := range s.TopTransactions {
			out.TopTransactions[i] = cloneTransaction(t)
		}
	}
	if s.PendingTransactions != nil {
		out.PendingTransactions = make([]PendingWalletTransaction, len(s.PendingTransactions))
		for i, p := range s.PendingTransactions {
			out.PendingTransactions[i] = clonePending(p)
		}
	}
	return out
}

// AccountState is what the ledger reports for an address
type AccountState struct {
	Balance           int64
	LastTransactionID *WalletTransactionID
	SyncTime          int64
}

// ============================================================================
// REFRESH SUBJECTS AND RESULTS
// ============================================================================

// StateSubject selects what a refresh looks at: a stored wallet or a bare address
type StateSubject struct {
	Wallet  *WalletInfo
	Address string
}

// SubjectWallet refreshes a stored wallet
func SubjectWallet(info WalletInfo) StateSubject {
	return StateSubject{Wallet: &info}
}

// SubjectAddress inspects an arbitrary address without persistence
func SubjectAddress(address string) StateSubject {
	return StateSubject{Address: address}
}

// IsWallet reports whether the subject is a stored wallet
func (s StateSubject) IsWallet() bool {
	return s.Wallet != nil
}

// StateResultKind tells cached results from updated ones
type StateResultKind string

const (
	StateResultCached  StateResultKind = "cached"
	StateResultUpdated StateResultKind = "updated"
)

// StateResult is one value yielded by a refresh.
// State may be nil only for cached results.
type StateResult struct {
	Kind  StateResultKind      `json:"kind"`
	State *CombinedWalletState `json:"state,omitempty"`
}

// Cached builds a cached result
func Cached(state *CombinedWalletState) StateResult {
	return StateResult{Kind: StateResultCached, State: state}
}

// Updated builds an updated result
func Updated(state *CombinedWalletState) StateResult {
	return StateResult{Kind: StateResultUpdated, State: state}
}
