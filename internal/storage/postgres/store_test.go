package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"avocado/internal/model"
)

func TestNewStoreRequiresDSN(t *testing.T) {
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

// TestStoreRoundTrip runs against a real database when AVOCADO_TEST_PG_DSN is set.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("AVOCADO_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("AVOCADO_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	key := "test_" + time.Now().Format("150405.000000000")
	if err := store.Set(ctx, key, []byte(`{"data":1,"timestamp":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := store.Get(ctx, key)
	if err != nil || !ok || string(got) != `{"data":1,"timestamp":1}` {
		t.Fatalf("unexpected get: %q ok=%v err=%v", got, ok, err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := store.Get(ctx, key); ok || err != nil {
		t.Fatalf("expected miss after delete, ok=%v err=%v", ok, err)
	}

	pools := []model.Pool{{ID: key, FeeTier: "3000", TotalValueLockedUSD: "1", VolumeUSD: "2"}}
	if err := store.PutPools(ctx, time.Now().Unix(), pools); err != nil {
		t.Fatalf("put pools: %v", err)
	}
}
