package core

import "time"

// Currency is the quote currency for all monetary fields.
// Both providers are queried in USD only.
const Currency = "USD"

// PricePoint is a single point of a price history series.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// MACDPoint is one row of a MACD indicator series. Histogram is the
// provider-computed difference between the MACD and Signal lines.
type MACDPoint struct {
	Time      time.Time `json:"time"`
	MACD      float64   `json:"macd"`
	Signal    float64   `json:"signal"`
	Histogram float64   `json:"histogram"`
}

// OHLCV represents one candle of historical market data.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// IsValid checks that the candle carries a usable close price.
func (o OHLCV) IsValid() bool {
	return !o.Time.IsZero() && o.Close > 0
}

// QuoteSnapshot is a point-in-time quote for one asset.
type QuoteSnapshot struct {
	ID               int       `json:"id"`
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	Price            float64   `json:"price"`
	Volume24h        float64   `json:"volume_24h"`
	MarketCap        float64   `json:"market_cap"`
	PercentChange1h  float64   `json:"percent_change_1h"`
	PercentChange24h float64   `json:"percent_change_24h"`
	PercentChange7d  float64   `json:"percent_change_7d"`
	LastUpdated      time.Time `json:"last_updated"`
}

// AssetInfo is static metadata for one asset.
type AssetInfo struct {
	ID          int    `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Website     string `json:"website,omitempty"`
}

// Fundamentals merges the latest quote and static metadata for one
// asset into a flat record.
type Fundamentals struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Price            float64 `json:"price"`
	MarketCap        float64 `json:"market_cap"`
	Volume24h        float64 `json:"volume_24h"`
	PercentChange1h  float64 `json:"percent_change_1h"`
	PercentChange24h float64 `json:"percent_change_24h"`
	PercentChange7d  float64 `json:"percent_change_7d"`
}

// MarketMetrics is a flat snapshot of aggregate market totals.
type MarketMetrics struct {
	TotalMarketCap    float64 `json:"total_market_cap"`
	TotalVolume24h    float64 `json:"total_volume_24h"`
	BitcoinDominance  float64 `json:"bitcoin_dominance"`
	EthereumDominance float64 `json:"ethereum_dominance"`
	ActiveCryptos     int     `json:"active_cryptocurrencies"`
	ActiveExchanges   int     `json:"active_exchanges"`
}

// DataPeriod echoes the caller's requested date range verbatim.
type DataPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AgentPayload is the composite record handed to analysis agents.
type AgentPayload struct {
	Ticker        string        `json:"ticker"`
	PriceData     []OHLCV       `json:"price_data"`
	Fundamentals  Fundamentals  `json:"fundamentals"`
	MarketMetrics MarketMetrics `json:"market_metrics"`
	DataPeriod    DataPeriod    `json:"data_period"`
}

// Report is the output of one research run.
type Report struct {
	ID          string       `json:"id"`
	Ticker      string       `json:"ticker"`
	Analysis    string       `json:"analysis"`
	Payload     AgentPayload `json:"payload"`
	Model       string       `json:"model"`
	GeneratedAt time.Time    `json:"generated_at"`
}
