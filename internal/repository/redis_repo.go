// internal/repository/redis_repo.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
)

const redisMaxTxRetries = 32

// RedisWalletRepository keeps one key per record plus a sorted-set index
// ordered by insertion. Update is an optimistic WATCH/MULTI transaction that
// is replayed when another writer touched the same record.
type RedisWalletRepository struct {
	client    redis.UniversalClient
	namespace string
	logger    *zap.Logger
}

func NewRedisWalletRepository(client redis.UniversalClient, namespace string, logger *zap.Logger) *RedisWalletRepository {
	if namespace == "" {
		namespace = "wallet:v1"
	}
	return &RedisWalletRepository{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

func (r *RedisWalletRepository) recordKey(publicKey domain.WalletPublicKey) string {
	return r.namespace + ":record:" + string(publicKey)
}

func (r *RedisWalletRepository) indexKey() string {
	return r.namespace + ":index"
}

func (r *RedisWalletRepository) seqKey() string {
	return r.namespace + ":seq"
}

func (r *RedisWalletRepository) Read(ctx context.Context, publicKey domain.WalletPublicKey) (*domain.CombinedWalletState, error) {
	raw, err := r.client.Get(ctx, r.recordKey(publicKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet record: %w", err)
	}

	_, record, err := decodeRecord(raw)
	if err != nil || record == nil {
		return nil, err
	}
	return record.State, nil
}

func (r *RedisWalletRepository) ReadAll(ctx context.Context) ([]*domain.WalletRecord, error) {
	members, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet index: %w", err)
	}
	if len(members) == 0 {
		return []*domain.WalletRecord{}, nil
	}

	keys := make([]string, len(members))
	for i, member := range members {
		keys[i] = r.recordKey(domain.WalletPublicKey(member))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet records: %w", err)
	}

	records := make([]*domain.WalletRecord, 0, len(values))
	for i, value := range values {
		s, ok := value.(string)
		if !ok {
			continue
		}
		_, record, err := decodeRecord([]byte(s))
		if err != nil {
			r.logger.Warn("Skipping undecodable wallet record", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		if record != nil {
			records = append(records, record)
		}
	}
	return records, nil
}

func (r *RedisWalletRepository) Update(
	ctx context.Context,
	publicKey domain.WalletPublicKey,
	mutator domain.RecordMutator,
) (*domain.WalletRecord, error) {

	key := r.recordKey(publicKey)

	for attempt := 0; attempt < redisMaxTxRetries; attempt++ {
		var result *domain.WalletRecord

		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			// 1. Load current under WATCH
			var (
				current *domain.WalletRecord
				seq     uint64
			)
			raw, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return err
			default:
				if seq, current, err = decodeRecord(raw); err != nil {
					return err
				}
			}

			// 2. Mutate
			next, err := mutator(current.Clone())
			if err != nil {
				return err
			}
			if err := checkMutation(publicKey, next); err != nil {
				return err
			}

			// INCR runs outside MULTI, so a retried create leaves a gap.
			// The index only needs increasing scores, not dense ones.
			if next != nil && current == nil {
				n, err := tx.Incr(ctx, r.seqKey()).Result()
				if err != nil {
					return err
				}
				seq = uint64(n)
			}

			var data []byte
			if next != nil {
				if data, err = encodeRecord(seq, next); err != nil {
					return err
				}
			}

			// 3. Commit, failing with TxFailedErr if the key moved
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if next == nil {
					pipe.Del(ctx, key)
					pipe.ZRem(ctx, r.indexKey(), string(publicKey))
					return nil
				}
				pipe.Set(ctx, key, data, 0)
				pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(seq), Member: string(publicKey)})
				return nil
			})
			if err != nil {
				return err
			}

			result = next.Clone()
			return nil
		}, key)

		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.Debug("Wallet record changed concurrently, retrying",
				zap.String("key", key),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to update wallet record %s: too many concurrent writers", key)
}

func (r *RedisWalletRepository) Reset(ctx context.Context, records []*domain.WalletRecord) error {
	records = uniqueRecords(records)

	members, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read wallet index: %w", err)
	}

	var base int64
	if len(records) > 0 {
		top, err := r.client.IncrBy(ctx, r.seqKey(), int64(len(records))).Result()
		if err != nil {
			return fmt.Errorf("failed to reserve sequence: %w", err)
		}
		base = top - int64(len(records))
	}

	encoded := make([][]byte, len(records))
	for i, record := range records {
		if encoded[i], err = encodeRecord(uint64(base+int64(i)+1), record); err != nil {
			return err
		}
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, member := range members {
			pipe.Del(ctx, r.recordKey(domain.WalletPublicKey(member)))
		}
		pipe.Del(ctx, r.indexKey())
		for i, record := range records {
			pipe.Set(ctx, r.recordKey(record.Info.PublicKey), encoded[i], 0)
			pipe.ZAdd(ctx, r.indexKey(), redis.Z{
				Score:  float64(base + int64(i) + 1),
				Member: string(record.Info.PublicKey),
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset wallet records: %w", err)
	}
	return nil
}
