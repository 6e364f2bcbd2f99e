// internal/repository/codec.go
package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"wallet-sync-service/internal/domain"
)

var errKeyMismatch = errors.New("record public key does not match update key")

// storedRecord is the on-disk envelope. Seq keeps the collection ordered.
type storedRecord struct {
	Seq    uint64               `json:"seq"`
	Record *domain.WalletRecord `json:"record"`
}

func encodeRecord(seq uint64, record *domain.WalletRecord) ([]byte, error) {
	data, err := json.Marshal(storedRecord{Seq: seq, Record: record})
	if err != nil {
		return nil, fmt.Errorf("failed to encode wallet record: %w", err)
	}
	return data, nil
}

// decodeRecord returns a nil record for entries without a public key; those
// are skipped on load
func decodeRecord(data []byte) (uint64, *domain.WalletRecord, error) {
	var stored storedRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return 0, nil, fmt.Errorf("failed to decode wallet record: %w", err)
	}
	if stored.Record == nil || stored.Record.Info.PublicKey == "" {
		return stored.Seq, nil, nil
	}
	return stored.Seq, stored.Record, nil
}

// checkMutation fills in the update key on a new record and rejects a
// record that tries to move to another key
func checkMutation(publicKey domain.WalletPublicKey, next *domain.WalletRecord) error {
	if next == nil {
		return nil
	}
	if next.Info.PublicKey == "" {
		next.Info.PublicKey = publicKey
	}
	if next.Info.PublicKey != publicKey {
		return fmt.Errorf("%w: %s", errKeyMismatch, next.Info.PublicKey)
	}
	return nil
}

// uniqueRecords drops keyless and repeated entries, keeping the first
func uniqueRecords(records []*domain.WalletRecord) []*domain.WalletRecord {
	seen := make(map[domain.WalletPublicKey]struct{}, len(records))
	out := make([]*domain.WalletRecord, 0, len(records))
	for _, record := range records {
		if record == nil || record.Info.PublicKey == "" {
			continue
		}
		if _, ok := seen[record.Info.PublicKey]; ok {
			continue
		}
		seen[record.Info.PublicKey] = struct{}{}
		out = append(out, record.Clone())
	}
	return out
}
