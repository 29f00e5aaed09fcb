package analytics

import (
	"math"
	"testing"

	"avocado/internal/model"
)

func snapshots(n int, fees, tvl string) []model.DailySnapshot {
	out := make([]model.DailySnapshot, n)
	for i := range out {
		out[i] = model.DailySnapshot{Date: int64(1700000000 - i*86400), FeesUSD: fees, TVLUSD: tvl, VolumeUSD: "1000"}
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEstimateAPREmpty(t *testing.T) {
	if got := EstimateAPR(model.Pool{TotalValueLockedUSD: "1000"}); got != 0 {
		t.Fatalf("expected 0 for no snapshots, got %f", got)
	}
	if got := EstimateAPR(model.Pool{PoolDayData: []model.DailySnapshot{}}); got != 0 {
		t.Fatalf("expected 0 for empty snapshots, got %f", got)
	}
}

func TestEstimateAPRSimpleInterest(t *testing.T) {
	// 7 days of 10 fees on 1000 TVL: weekly 7%, annualized 7 * 52 = 364%.
	pool := model.Pool{PoolDayData: snapshots(7, "10", "1000")}
	if got := EstimateAPR(pool); !almostEqual(got, 364) {
		t.Fatalf("expected 364, got %f", got)
	}
}

func TestEstimateAPRIgnoresOlderSnapshots(t *testing.T) {
	base := snapshots(7, "10", "1000")
	extended := append(append([]model.DailySnapshot{}, base...), snapshots(5, "999999", "1")...)

	want := EstimateAPR(model.Pool{PoolDayData: base})
	got := EstimateAPR(model.Pool{PoolDayData: extended})
	if !almostEqual(got, want) {
		t.Fatalf("snapshots beyond the seventh changed APR: %f != %f", got, want)
	}
}

func TestEstimateAPRFewerSnapshots(t *testing.T) {
	// 3 days: fees 30 over mean TVL 1000 -> 3% weekly -> 156%.
	pool := model.Pool{PoolDayData: snapshots(3, "10", "1000")}
	if got := EstimateAPR(pool); !almostEqual(got, 156) {
		t.Fatalf("expected 156, got %f", got)
	}
}

func TestEstimateAPRMissingTVLUsesPoolTVL(t *testing.T) {
	pool := model.Pool{
		TotalValueLockedUSD: "2000",
		PoolDayData: []model.DailySnapshot{
			{FeesUSD: "20", TVLUSD: ""},
			{FeesUSD: "20", TVLUSD: "2000"},
		},
	}
	// 40 fees over mean TVL 2000 -> 2% weekly -> 104%.
	if got := EstimateAPR(pool); !almostEqual(got, 104) {
		t.Fatalf("expected 104, got %f", got)
	}
}

func TestEstimateAPRMalformedValues(t *testing.T) {
	pool := model.Pool{
		PoolDayData: []model.DailySnapshot{
			{FeesUSD: "not-a-number", TVLUSD: "1000"},
			{FeesUSD: "10", TVLUSD: "1000"},
		},
	}
	got := EstimateAPR(pool)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("APR must be finite, got %f", got)
	}
	// 10 fees over mean TVL 1000 -> 1% weekly -> 52%.
	if !almostEqual(got, 52) {
		t.Fatalf("expected 52, got %f", got)
	}
}

func TestEstimateAPRZeroTVL(t *testing.T) {
	pool := model.Pool{PoolDayData: snapshots(3, "10", "0")}
	if got := EstimateAPR(pool); got != 0 {
		t.Fatalf("expected 0 on zero TVL, got %f", got)
	}
}

func TestEstimateAPRNonNegative(t *testing.T) {
	pool := model.Pool{PoolDayData: snapshots(3, "-10", "1000")}
	if got := EstimateAPR(pool); got < 0 {
		t.Fatalf("APR must be non-negative, got %f", got)
	}
}

func TestHistoricalAPR(t *testing.T) {
	pool := model.Pool{
		PoolDayData: []model.DailySnapshot{
			{FeesUSD: "2", TVLUSD: "365"},
			{FeesUSD: "1", TVLUSD: "365"},
			{FeesUSD: "1", TVLUSD: "0"},
		},
	}
	got := HistoricalAPR(pool, 30)
	want := []float64{0, 100, 200}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: %v", got)
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("index %d: got %f, want %f", i, got[i], want[i])
		}
	}
	if got := HistoricalAPR(pool, 1); len(got) != 1 || !almostEqual(got[0], 200) {
		t.Fatalf("truncation mismatch: %v", got)
	}
}

func TestVolumeChange(t *testing.T) {
	pool := model.Pool{
		PoolDayData: []model.DailySnapshot{{VolumeUSD: "150"}, {VolumeUSD: "100"}},
	}
	if got := VolumeChange(pool); !almostEqual(got, 50) {
		t.Fatalf("expected 50%%, got %f", got)
	}
	if got := VolumeChange(model.Pool{PoolDayData: pool.PoolDayData[:1]}); got != 0 {
		t.Fatalf("expected 0 with one snapshot, got %f", got)
	}
}

func TestFees24h(t *testing.T) {
	pool := model.Pool{PoolDayData: []model.DailySnapshot{{FeesUSD: "637716"}, {FeesUSD: "1"}}}
	if got := Fees24h(pool); got != 637716 {
		t.Fatalf("unexpected fees: %f", got)
	}
}
