package storage

import (
	"context"

	"avocado/internal/model"
)

// PoolSink persists a fetched pool listing.
type PoolSink interface {
	PutPools(ctx context.Context, fetchedAt int64, pools []model.Pool) error
}
