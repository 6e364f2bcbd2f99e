// internal/domain/wallet.go
package domain

// WalletPublicKey identifies a wallet and keys its stored record
type WalletPublicKey string

// String returns the raw key
func (k WalletPublicKey) String() string {
	return string(k)
}

// EncryptedSecret is the keychain-sealed wallet secret.
// PublicKey names the keychain key that sealed Data.
type EncryptedSecret struct {
	PublicKey []byte `json:"publicKey"`
	Data      []byte `json:"data"`
}

// WalletInfo is a wallet public key plus its encrypted secret
type WalletInfo struct {
	PublicKey       WalletPublicKey `json:"publicKey"`
	EncryptedSecret EncryptedSecret `json:"encryptedSecret"`
}

// WalletRecord is one persisted wallet entry
type WalletRecord struct {
	Info            WalletInfo           `json:"info"`
	ExportCompleted bool                 `json:"exportCompleted"`
	State           *CombinedWalletState `json:"state,omitempty"`
}

// Clone returns a deep copy so store mutators never alias cached records
func (r *WalletRecord) Clone() *WalletRecord {
	if r == nil {
		return nil
	}
	out := &WalletRecord{
		Info: WalletInfo{
			PublicKey: r.Info.PublicKey,
			EncryptedSecret: EncryptedSecret{
				PublicKey: cloneBytes(r.Info.EncryptedSecret.PublicKey),
				Data:      cloneBytes(r.Info.EncryptedSecret.Data),
			},
		},
		ExportCompleted: r.ExportCompleted,
	}
	if r.State != nil {
		out.State = r.State.Clone()
	}
	return out
}

// LedgerKey is a key pair produced by the ledger key manager.
// Secret never leaves the process unencrypted.
type LedgerKey struct {
	PublicKey WalletPublicKey
	Secret    []byte
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
