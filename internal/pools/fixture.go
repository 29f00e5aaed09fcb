package pools

import (
	"time"

	"avocado/internal/model"
)

const fixtureCreatedAt = "1620259200"

var (
	tokenUSDC = model.Token{ID: "0xa0b86a33e6776e681c6c5b7f4b8b8b8b8b8b8b8b", Symbol: "USDC", Name: "USD Coin", Decimals: "6"}
	tokenWETH = model.Token{ID: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", Symbol: "WETH", Name: "Wrapped Ether", Decimals: "18"}
	tokenWBTC = model.Token{ID: "0x2260fac5e5542a773aa44fbcfedf7c193bc2c599", Symbol: "WBTC", Name: "Wrapped Bitcoin", Decimals: "8"}
	tokenDAI  = model.Token{ID: "0x6b175474e89094c44da98b954eedeac495271d0f", Symbol: "DAI", Name: "Dai Stablecoin", Decimals: "18"}
	tokenUSDT = model.Token{ID: "0xdac17f958d2ee523a2206206994597c13d831ec7", Symbol: "USDT", Name: "Tether USD", Decimals: "6"}
	tokenUNI  = model.Token{ID: "0x1f9840a85d5af5bf1d1762f925bdaddc4201f984", Symbol: "UNI", Name: "Uniswap", Decimals: "18"}
	tokenLINK = model.Token{ID: "0x514910771af9ca656af840dff83e8264ecf986ca", Symbol: "LINK", Name: "Chainlink", Decimals: "18"}
	tokenAAVE = model.Token{ID: "0x7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9", Symbol: "AAVE", Name: "Aave Token", Decimals: "18"}
	tokenYFI  = model.Token{ID: "0x0bc529c00c6401aef6d220be8c6ea1667f6ad93e", Symbol: "YFI", Name: "yearn.finance", Decimals: "18"}
)

// day is one synthetic snapshot: volume, TVL and fees in USD.
type day [3]string

type fixturePool struct {
	pool model.Pool
	days [3]day
}

var fixturePools = []fixturePool{
	{
		pool: model.Pool{
			ID: "0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640", Token0: tokenUSDC, Token1: tokenWETH, FeeTier: "500",
			Liquidity: "38472847293847", SqrtPrice: "1987234872394", Tick: "201245",
			Token0Price: "0.0003125", Token1Price: "3200.45", VolumeUSD: "127543210.50", TxCount: "4847",
			TotalValueLockedUSD: "445678901.25", TotalValueLockedToken0: "139543210", TotalValueLockedToken1: "139823",
		},
		days: [3]day{
			{"127543210", "445678901", "637716"},
			{"119341567", "443567890", "596708"},
			{"115234567", "441234567", "576173"},
		},
	},
	{
		pool: model.Pool{
			ID: "0xcbcdf9626bc03e24f779434178a73a0b4bad62ed", Token0: tokenWBTC, Token1: tokenWETH, FeeTier: "3000",
			Liquidity: "12847293847", SqrtPrice: "987234872394", Tick: "-54321",
			Token0Price: "18.75", Token1Price: "0.0533", VolumeUSD: "89678901.75", TxCount: "2234",
			TotalValueLockedUSD: "298789012.50", TotalValueLockedToken0: "4456", TotalValueLockedToken1: "83578",
		},
		days: [3]day{
			{"89678901", "298789012", "2690367"},
			{"85567890", "296234567", "2567037"},
			{"82345678", "294567890", "2470370"},
		},
	},
	{
		pool: model.Pool{
			ID: "0x6c6bc977e13df9b0de53b251522280bb72383700", Token0: tokenDAI, Token1: tokenUSDC, FeeTier: "100",
			Liquidity: "98472847293", SqrtPrice: "79228162514264", Tick: "0",
			Token0Price: "1.0001", Token1Price: "0.9999", VolumeUSD: "156456789.25", TxCount: "8678",
			TotalValueLockedUSD: "234012345.75", TotalValueLockedToken0: "117006172", TotalValueLockedToken1: "117006173",
		},
		days: [3]day{
			{"156456789", "234012345", "156457"},
			{"149345678", "232567890", "149346"},
			{"145234567", "231234567", "145235"},
		},
	},
	{
		pool: model.Pool{
			ID: "0x4e68ccd3e89f51c3074ca5072bbac773960dfa36", Token0: tokenWETH, Token1: tokenUSDT, FeeTier: "3000",
			Liquidity: "15847293847", SqrtPrice: "1987234872394", Tick: "201245",
			Token0Price: "3201.25", Token1Price: "0.0003124", VolumeUSD: "98890123.50", TxCount: "3876",
			TotalValueLockedUSD: "187567890.25", TotalValueLockedToken0: "58589", TotalValueLockedToken1: "187567890",
		},
		days: [3]day{
			{"98890123", "187567890", "2966704"},
			{"94432109", "185456789", "2832963"},
			{"91234567", "183345678", "2737037"},
		},
	},
	{
		pool: model.Pool{
			ID: "0x1d42064fc4beb5f8aaf85f4617ae8b3b5b8bd801", Token0: tokenUNI, Token1: tokenWETH, FeeTier: "3000",
			Liquidity: "8472847293", SqrtPrice: "987234872394", Tick: "-12345",
			Token0Price: "0.00234", Token1Price: "427.35", VolumeUSD: "34345678.90", TxCount: "1987",
			TotalValueLockedUSD: "78678901.25", TotalValueLockedToken0: "18876543", TotalValueLockedToken1: "18689",
		},
		days: [3]day{
			{"34345678", "78678901", "1030370"},
			{"32234567", "77567890", "967037"},
			{"31123456", "76456789", "933704"},
		},
	},
	{
		pool: model.Pool{
			ID: "0x514910771af9ca656af840dff83e8264ecf986ca", Token0: tokenLINK, Token1: tokenWETH, FeeTier: "3000",
			Liquidity: "6472847293", SqrtPrice: "887234872394", Tick: "-23456",
			Token0Price: "0.00456", Token1Price: "219.30", VolumeUSD: "23901234.56", TxCount: "1654",
			TotalValueLockedUSD: "56109876.50", TotalValueLockedToken0: "12345678", TotalValueLockedToken1: "12821",
		},
		days: [3]day{
			{"23901234", "56109876", "717037"},
			{"22567890", "55876543", "677037"},
			{"21456789", "54765432", "643704"},
		},
	},
	{
		pool: model.Pool{
			ID: "0x7bea39867e4169dbe237d55c8242a8f2fcdcc387", Token0: tokenAAVE, Token1: tokenWETH, FeeTier: "3000",
			Liquidity: "4472847293", SqrtPrice: "687234872394", Tick: "-34567",
			Token0Price: "0.0234", Token1Price: "42.75", VolumeUSD: "12345678.90", TxCount: "987",
			TotalValueLockedUSD: "34567890.25", TotalValueLockedToken0: "808543", TotalValueLockedToken1: "8089",
		},
		days: [3]day{
			{"12345678", "34567890", "370370"},
			{"11234567", "33456789", "337037"},
			{"10876543", "32345678", "326296"},
		},
	},
	{
		pool: model.Pool{
			ID: "0x99ac8ca7087fa4a2a1fb6357269965a2014abc35", Token0: tokenYFI, Token1: tokenWETH, FeeTier: "3000",
			Liquidity: "2472847293", SqrtPrice: "487234872394", Tick: "-45678",
			Token0Price: "1.875", Token1Price: "0.533", VolumeUSD: "8901234.56", TxCount: "543",
			TotalValueLockedUSD: "23456789.50", TotalValueLockedToken0: "12506", TotalValueLockedToken1: "7321",
		},
		days: [3]day{
			{"8901234", "23456789", "267037"},
			{"8567890", "22876543", "257037"},
			{"8234567", "22345678", "247037"},
		},
	},
}

// Fixture returns the static example pools with snapshots dated today,
// yesterday and two days before now. Each call returns fresh slices.
func Fixture(now time.Time) []model.Pool {
	current := now.Unix()
	out := make([]model.Pool, 0, len(fixturePools))
	for _, fp := range fixturePools {
		pool := fp.pool
		pool.CreatedAtTimestamp = fixtureCreatedAt
		pool.PoolDayData = make([]model.DailySnapshot, len(fp.days))
		for i, d := range fp.days {
			pool.PoolDayData[i] = model.DailySnapshot{
				Date:      current - int64(i)*86400,
				VolumeUSD: d[0],
				TVLUSD:    d[1],
				FeesUSD:   d[2],
			}
		}
		out = append(out, pool)
	}
	return out
}

// FixturePool returns the fixture pool with id.
func FixturePool(now time.Time, id string) (model.Pool, bool) {
	for _, pool := range Fixture(now) {
		if equalFoldID(pool.ID, id) {
			return pool, true
		}
	}
	return model.Pool{}, false
}
