package model

// MarketCoin is one record of the market-data "markets" endpoint.
type MarketCoin struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	MarketCap                float64 `json:"market_cap"`
	TotalVolume              float64 `json:"total_volume"`
	Image                    string  `json:"image,omitempty"`
}

// TokenPrice is the price view joined against pool tokens by uppercase symbol.
type TokenPrice struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Change24hPct float64 `json:"change24hPct"`
	MarketCap    float64 `json:"marketCap"`
	Volume24h    float64 `json:"volume24h"`
	Image        string  `json:"image,omitempty"`
}

// TokenPriceFromCoin converts a market record into a TokenPrice.
func TokenPriceFromCoin(coin MarketCoin) TokenPrice {
	return TokenPrice{
		ID:           coin.ID,
		Symbol:       coin.Symbol,
		Name:         coin.Name,
		Price:        coin.CurrentPrice,
		Change24hPct: coin.PriceChangePercentage24h,
		MarketCap:    coin.MarketCap,
		Volume24h:    coin.TotalVolume,
		Image:        coin.Image,
	}
}
