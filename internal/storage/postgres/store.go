package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"avocado/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS pool_snapshots (
	pool_id     TEXT NOT NULL,
	fetched_at  BIGINT NOT NULL,
	pair        TEXT NOT NULL,
	fee_tier    TEXT NOT NULL,
	tvl_usd     TEXT NOT NULL,
	volume_usd  TEXT NOT NULL,
	payload     JSONB NOT NULL,
	PRIMARY KEY (pool_id, fetched_at)
);
`

// Store provides Postgres persistence for cache entries and pool snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables used by the store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Get returns the cache entry bytes for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	row := s.pool.QueryRow(ctx, `SELECT value FROM cache_entries WHERE key=$1`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// Set upserts the cache entry bytes for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cache_entries (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	return err
}

// Delete removes the cache entry for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM cache_entries WHERE key=$1`, key)
	return err
}

// PutPools inserts or updates one snapshot row per pool.
func (s *Store) PutPools(ctx context.Context, fetchedAt int64, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		payload, err := json.Marshal(pool)
		if err != nil {
			return fmt.Errorf("marshal pool %s: %w", pool.ID, err)
		}
		batch.Queue(`
			INSERT INTO pool_snapshots (
				pool_id, fetched_at, pair, fee_tier, tvl_usd, volume_usd, payload
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (pool_id, fetched_at)
			DO UPDATE SET
				pair = EXCLUDED.pair,
				fee_tier = EXCLUDED.fee_tier,
				tvl_usd = EXCLUDED.tvl_usd,
				volume_usd = EXCLUDED.volume_usd,
				payload = EXCLUDED.payload
		`,
			pool.ID,
			fetchedAt,
			pool.Token0.Symbol+"/"+pool.Token1.Symbol,
			pool.FeeTier,
			pool.TotalValueLockedUSD,
			pool.VolumeUSD,
			payload,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
