// Package dataflow layers convenience lookups over the fundamentals
// client: flat records and the composite payload handed to analysis
// agents. No network behavior of its own; everything delegates.
package dataflow

import (
	"fmt"
	"strconv"
	"time"

	"github.com/quantflow/cryptoresearch/internal/core"
	"github.com/quantflow/cryptoresearch/internal/provider/coinmarketcap"
)

// DateLayout is the calendar-date format callers pass for ranges.
const DateLayout = "2006-01-02"

// FundamentalsProvider is the slice of the coinmarketcap client the
// dataflow layer needs.
type FundamentalsProvider interface {
	CryptoID(symbol string) (int, error)
	LatestQuote(symbols []string) (map[string]coinmarketcap.QuoteData, error)
	HistoricalQuotes(symbol string, start, end time.Time) ([]core.OHLCV, error)
	CryptoInfo(symbols []string) (map[string]core.AssetInfo, error)
	GlobalMetrics() (*coinmarketcap.GlobalData, error)
}

// PriceData fetches the OHLCV table for a symbol between two calendar
// dates (inclusive, "YYYY-MM-DD").
func PriceData(p FundamentalsProvider, symbol, startDate, endDate string) ([]core.OHLCV, error) {
	start, end, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return p.HistoricalQuotes(symbol, start, end)
}

// Fundamentals merges the latest quote and static metadata for one
// symbol into a flat record.
func Fundamentals(p FundamentalsProvider, symbol string) (*core.Fundamentals, error) {
	id, err := p.CryptoID(symbol)
	if err != nil {
		return nil, err
	}
	key := strconv.Itoa(id)

	quotes, err := p.LatestQuote([]string{symbol})
	if err != nil {
		return nil, err
	}
	quote, ok := quotes[key]
	if !ok {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("no quote entry for %s (id %s)", symbol, key))
	}
	usd, ok := quote.Quote[core.Currency]
	if !ok {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("quote for %s missing %s entry", symbol, core.Currency))
	}

	info, err := p.CryptoInfo([]string{symbol})
	if err != nil {
		return nil, err
	}
	meta, ok := info[key]
	if !ok {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("no metadata entry for %s (id %s)", symbol, key))
	}

	return &core.Fundamentals{
		Symbol:           quote.Symbol,
		Name:             meta.Name,
		Description:      meta.Description,
		Price:            usd.Price,
		MarketCap:        usd.MarketCap,
		Volume24h:        usd.Volume24h,
		PercentChange1h:  usd.PercentChange1h,
		PercentChange24h: usd.PercentChange24h,
		PercentChange7d:  usd.PercentChange7d,
	}, nil
}

// MarketMetrics flattens the global metrics snapshot, including the
// Bitcoin and Ethereum dominance percentages.
func MarketMetrics(p FundamentalsProvider) (*core.MarketMetrics, error) {
	data, err := p.GlobalMetrics()
	if err != nil {
		return nil, err
	}
	usd, ok := data.Quote[core.Currency]
	if !ok {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("global metrics missing %s entry", core.Currency))
	}

	return &core.MarketMetrics{
		TotalMarketCap:    usd.TotalMarketCap,
		TotalVolume24h:    usd.TotalVolume24h,
		BitcoinDominance:  data.BTCDominance,
		EthereumDominance: data.ETHDominance,
		ActiveCryptos:     data.ActiveCryptos,
		ActiveExchanges:   data.ActiveExchanges,
	}, nil
}

// LatestQuotes fetches flat snapshots for several symbols at once.
func LatestQuotes(p FundamentalsProvider, symbols []string) ([]core.QuoteSnapshot, error) {
	quotes, err := p.LatestQuote(symbols)
	if err != nil {
		return nil, err
	}

	snapshots := make([]core.QuoteSnapshot, 0, len(quotes))
	for _, q := range quotes {
		usd, ok := q.Quote[core.Currency]
		if !ok {
			continue
		}
		snapshots = append(snapshots, core.QuoteSnapshot{
			ID:               q.ID,
			Symbol:           q.Symbol,
			Name:             q.Name,
			Price:            usd.Price,
			Volume24h:        usd.Volume24h,
			MarketCap:        usd.MarketCap,
			PercentChange1h:  usd.PercentChange1h,
			PercentChange24h: usd.PercentChange24h,
			PercentChange7d:  usd.PercentChange7d,
			LastUpdated:      parseUpdated(usd.LastUpdated),
		})
	}
	return snapshots, nil
}

// FormatForAgents assembles the composite payload for one symbol.
// DataPeriod echoes the caller's literal date strings unmodified.
func FormatForAgents(p FundamentalsProvider, symbol, startDate, endDate string) (*core.AgentPayload, error) {
	priceData, err := PriceData(p, symbol, startDate, endDate)
	if err != nil {
		return nil, err
	}

	fundamentals, err := Fundamentals(p, symbol)
	if err != nil {
		return nil, err
	}

	marketMetrics, err := MarketMetrics(p)
	if err != nil {
		return nil, err
	}

	return &core.AgentPayload{
		Ticker:        symbol,
		PriceData:     priceData,
		Fundamentals:  *fundamentals,
		MarketMetrics: *marketMetrics,
		DataPeriod: core.DataPeriod{
			Start: startDate,
			End:   endDate,
		},
	}, nil
}

func parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing start date %q: %w", startDate, err)
	}
	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s precedes start date %s", endDate, startDate)
	}
	return start, end, nil
}

func parseUpdated(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
