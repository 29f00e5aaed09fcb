package model

// Token is a pool token as reported by the indexing API.
type Token struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals string `json:"decimals"`
}

// DailySnapshot is one day of aggregated pool activity. Numeric fields are
// transmitted as strings to avoid precision loss upstream.
type DailySnapshot struct {
	Date      int64  `json:"date"`
	VolumeUSD string `json:"volumeUSD"`
	TVLUSD    string `json:"tvlUSD"`
	FeesUSD   string `json:"feesUSD"`
	Open      string `json:"open,omitempty"`
	High      string `json:"high,omitempty"`
	Low       string `json:"low,omitempty"`
	Close     string `json:"close,omitempty"`
}

// Pool is a Uniswap V3 pool with its recent daily snapshots, most recent first.
type Pool struct {
	ID                     string          `json:"id"`
	Token0                 Token           `json:"token0"`
	Token1                 Token           `json:"token1"`
	FeeTier                string          `json:"feeTier"`
	Liquidity              string          `json:"liquidity,omitempty"`
	SqrtPrice              string          `json:"sqrtPrice,omitempty"`
	Tick                   string          `json:"tick,omitempty"`
	Token0Price            string          `json:"token0Price,omitempty"`
	Token1Price            string          `json:"token1Price,omitempty"`
	VolumeUSD              string          `json:"volumeUSD"`
	TxCount                string          `json:"txCount,omitempty"`
	TotalValueLockedUSD    string          `json:"totalValueLockedUSD"`
	TotalValueLockedToken0 string          `json:"totalValueLockedToken0,omitempty"`
	TotalValueLockedToken1 string          `json:"totalValueLockedToken1,omitempty"`
	CreatedAtTimestamp     string          `json:"createdAtTimestamp,omitempty"`
	PoolDayData            []DailySnapshot `json:"poolDayData"`
}

// Symbols returns the pool's two token symbols.
func (p Pool) Symbols() [2]string {
	return [2]string{p.Token0.Symbol, p.Token1.Symbol}
}
