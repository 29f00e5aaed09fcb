package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"avocado/internal/analytics"
	"avocado/internal/format"
	"avocado/internal/model"
)

// maxRecordSize bounds one line; a pool with 30 snapshots is well under it.
const maxRecordSize = 1 << 20

// PoolRecord is one archived pool with the APR estimated at fetch time.
type PoolRecord struct {
	FetchedAt int64      `json:"fetchedAt"`
	Pair      string     `json:"pair"`
	APR       float64    `json:"apr"`
	Pool      model.Pool `json:"pool"`
}

// JsonlStorage archives pool listings as JSON lines, appending across runs.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

func (s *JsonlStorage) PutPools(_ context.Context, fetchedAt int64, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create archive dir: %w", err)
		}
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	writer := bufio.NewWriter(file)
	enc := json.NewEncoder(writer)
	for _, pool := range pools {
		rec := PoolRecord{
			FetchedAt: fetchedAt,
			Pair:      format.PairName(pool),
			APR:       analytics.EstimateAPR(pool),
			Pool:      pool,
		}
		if err := enc.Encode(rec); err != nil {
			file.Close()
			return fmt.Errorf("encode pool %s: %w", pool.ID, err)
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("flush archive: %w", err)
	}
	return file.Close()
}

// ReadPoolRecords loads every record in the archive. A missing file yields
// no records.
func (s *JsonlStorage) ReadPoolRecords() ([]PoolRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	var records []PoolRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec PoolRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("decode archive line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan archive: %w", err)
	}
	return records, nil
}
