// Package sqlite persists cache entries and pool snapshots in a local
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"avocado/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS pool_snapshots (
	pool_id    TEXT NOT NULL,
	fetched_at INTEGER NOT NULL,
	pair       TEXT NOT NULL,
	fee_tier   TEXT NOT NULL,
	tvl_usd    TEXT NOT NULL,
	volume_usd TEXT NOT NULL,
	payload    TEXT NOT NULL,
	PRIMARY KEY (pool_id, fetched_at)
);
`

// Store is a SQLite-backed cache backend and pool sink.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cache_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache entry: %w", err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// PutPools writes one snapshot row per pool inside a single transaction.
func (s *Store) PutPools(ctx context.Context, fetchedAt int64, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pool_snapshots (pool_id, fetched_at, pair, fee_tier, tvl_usd, volume_usd, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pool_id, fetched_at) DO UPDATE SET
			pair = excluded.pair,
			fee_tier = excluded.fee_tier,
			tvl_usd = excluded.tvl_usd,
			volume_usd = excluded.volume_usd,
			payload = excluded.payload
	`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, pool := range pools {
		payload, err := json.Marshal(pool)
		if err != nil {
			return fmt.Errorf("marshal pool %s: %w", pool.ID, err)
		}
		pair := pool.Token0.Symbol + "/" + pool.Token1.Symbol
		if _, err := stmt.ExecContext(ctx, pool.ID, fetchedAt, pair, pool.FeeTier, pool.TotalValueLockedUSD, pool.VolumeUSD, string(payload)); err != nil {
			return fmt.Errorf("insert snapshot %s: %w", pool.ID, err)
		}
	}
	return tx.Commit()
}

// Snapshots returns the pools recorded at fetchedAt ordered by pool id.
func (s *Store) Snapshots(ctx context.Context, fetchedAt int64) ([]model.Pool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM pool_snapshots WHERE fetched_at = ? ORDER BY pool_id`, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []model.Pool
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var pool model.Pool
		if err := json.Unmarshal([]byte(payload), &pool); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, pool)
	}
	return out, rows.Err()
}
