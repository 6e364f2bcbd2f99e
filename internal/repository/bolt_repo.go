// internal/repository/bolt_repo.go
package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
)

// walletRecordBucket holds one JSON envelope per public key
var walletRecordBucket = []byte("wallet-records")

// BoltWalletRepository stores the collection in a local bbolt file.
// bbolt allows one writer at a time, which makes every Update atomic.
type BoltWalletRepository struct {
	db     *bbolt.DB
	logger *zap.Logger
}

func NewBoltWalletRepository(path string, logger *zap.Logger) (*BoltWalletRepository, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(walletRecordBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	logger.Info("Bolt wallet store opened", zap.String("path", path))

	return &BoltWalletRepository{db: db, logger: logger}, nil
}

func (r *BoltWalletRepository) Close() error {
	return r.db.Close()
}

func (r *BoltWalletRepository) Read(ctx context.Context, publicKey domain.WalletPublicKey) (*domain.CombinedWalletState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state *domain.CombinedWalletState
	err := r.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(walletRecordBucket).Get([]byte(publicKey))
		if raw == nil {
			return nil
		}
		_, record, err := decodeRecord(raw)
		if err != nil || record == nil {
			return err
		}
		state = record.State
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet state: %w", err)
	}
	return state, nil
}

func (r *BoltWalletRepository) ReadAll(ctx context.Context) ([]*domain.WalletRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type entry struct {
		seq    uint64
		record *domain.WalletRecord
	}
	var entries []entry

	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(walletRecordBucket).ForEach(func(k, v []byte) error {
			seq, record, err := decodeRecord(v)
			if err != nil {
				r.logger.Warn("Skipping undecodable wallet record", zap.ByteString("key", k), zap.Error(err))
				return nil
			}
			if record != nil {
				entries = append(entries, entry{seq: seq, record: record})
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet records: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	records := make([]*domain.WalletRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.record)
	}
	return records, nil
}

func (r *BoltWalletRepository) Update(
	ctx context.Context,
	publicKey domain.WalletPublicKey,
	mutator domain.RecordMutator,
) (*domain.WalletRecord, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *domain.WalletRecord
	err := r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(walletRecordBucket)
		key := []byte(publicKey)

		// 1. Load current
		var (
			current *domain.WalletRecord
			seq     uint64
			err     error
		)
		if raw := bucket.Get(key); raw != nil {
			seq, current, err = decodeRecord(raw)
			if err != nil {
				return err
			}
		}

		// 2. Mutate
		next, err := mutator(current)
		if err != nil {
			return err
		}
		if err := checkMutation(publicKey, next); err != nil {
			return err
		}

		// 3. Write back
		if next == nil {
			return bucket.Delete(key)
		}
		if current == nil {
			if seq, err = bucket.NextSequence(); err != nil {
				return err
			}
		}
		data, err := encodeRecord(seq, next)
		if err != nil {
			return err
		}
		result = next.Clone()
		return bucket.Put(key, data)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *BoltWalletRepository) Reset(ctx context.Context, records []*domain.WalletRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(walletRecordBucket); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket(walletRecordBucket)
		if err != nil {
			return err
		}

		for _, record := range uniqueRecords(records) {
			seq, err := bucket.NextSequence()
			if err != nil {
				return err
			}
			data, err := encodeRecord(seq, record)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(record.Info.PublicKey), data); err != nil {
				return err
			}
		}
		return nil
	})
}
