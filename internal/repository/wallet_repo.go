// internal/repository/wallet_repo.go
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
)

const walletRecordsSchema = `
	CREATE TABLE IF NOT EXISTS wallet_records (
		public_key  TEXT PRIMARY KEY,
		seq         BIGSERIAL,
		record      JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresWalletRepository stores one row per wallet. Updates take a
// transaction-scoped advisory lock on the public key so that creating an
// absent record is serialized as well.
type PostgresWalletRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresWalletRepository(pool *pgxpool.Pool, logger *zap.Logger) *PostgresWalletRepository {
	return &PostgresWalletRepository{pool: pool, logger: logger}
}

// EnsureSchema creates the wallet_records table if needed
func (r *PostgresWalletRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, walletRecordsSchema); err != nil {
		return fmt.Errorf("failed to create wallet_records: %w", err)
	}
	return nil
}

// ============================================================================
// READS
// ============================================================================

func (r *PostgresWalletRepository) Read(ctx context.Context, publicKey domain.WalletPublicKey) (*domain.CombinedWalletState, error) {
	query := `SELECT record FROM wallet_records WHERE public_key = $1`

	var raw []byte
	err := r.pool.QueryRow(ctx, query, string(publicKey)).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet record: %w", err)
	}

	record, err := decodeRow(raw)
	if err != nil || record == nil {
		return nil, err
	}
	return record.State, nil
}

func (r *PostgresWalletRepository) ReadAll(ctx context.Context) ([]*domain.WalletRecord, error) {
	query := `SELECT public_key, record FROM wallet_records ORDER BY seq ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet records: %w", err)
	}
	defer rows.Close()

	var records []*domain.WalletRecord
	for rows.Next() {
		var (
			publicKey string
			raw       []byte
		)
		if err := rows.Scan(&publicKey, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan wallet record: %w", err)
		}

		record, err := decodeRow(raw)
		if err != nil {
			r.logger.Warn("Skipping undecodable wallet record", zap.String("public_key", publicKey), zap.Error(err))
			continue
		}
		if record != nil {
			records = append(records, record)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallet records: %w", err)
	}
	return records, nil
}

// ============================================================================
// WRITES
// ============================================================================

func (r *PostgresWalletRepository) Update(
	ctx context.Context,
	publicKey domain.WalletPublicKey,
	mutator domain.RecordMutator,
) (*domain.WalletRecord, error) {

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1. Serialize writers of this key
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(publicKey)); err != nil {
		return nil, fmt.Errorf("failed to lock wallet record: %w", err)
	}

	// 2. Load current
	var (
		current *domain.WalletRecord
		raw     []byte
	)
	err = tx.QueryRow(ctx, `SELECT record FROM wallet_records WHERE public_key = $1`, string(publicKey)).Scan(&raw)
	switch {
	case err == pgx.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("failed to load wallet record: %w", err)
	default:
		if current, err = decodeRow(raw); err != nil {
			return nil, err
		}
	}

	// 3. Mutate
	next, err := mutator(current)
	if err != nil {
		return nil, err
	}
	if err := checkMutation(publicKey, next); err != nil {
		return nil, err
	}

	// 4. Write back
	if next == nil {
		if _, err := tx.Exec(ctx, `DELETE FROM wallet_records WHERE public_key = $1`, string(publicKey)); err != nil {
			return nil, fmt.Errorf("failed to delete wallet record: %w", err)
		}
	} else {
		data, err := encodeRecord(0, next)
		if err != nil {
			return nil, err
		}
		upsert := `
			INSERT INTO wallet_records (public_key, record)
			VALUES ($1, $2)
			ON CONFLICT (public_key) DO UPDATE
			SET record = EXCLUDED.record, updated_at = NOW()
		`
		if _, err := tx.Exec(ctx, upsert, string(publicKey), data); err != nil {
			return nil, fmt.Errorf("failed to save wallet record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit wallet record: %w", err)
	}
	return next.Clone(), nil
}

func (r *PostgresWalletRepository) Reset(ctx context.Context, records []*domain.WalletRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM wallet_records`); err != nil {
		return fmt.Errorf("failed to clear wallet records: %w", err)
	}

	for _, record := range uniqueRecords(records) {
		data, err := encodeRecord(0, record)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO wallet_records (public_key, record) VALUES ($1, $2)`,
			string(record.Info.PublicKey), data,
		); err != nil {
			return fmt.Errorf("failed to insert wallet record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}

// decodeRow reads the JSON envelope of a row. The seq column is authoritative
// for ordering, so the envelope's seq is ignored here.
func decodeRow(raw []byte) (*domain.WalletRecord, error) {
	_, record, err := decodeRecord(raw)
	return record, err
}
