// Package coincap wraps the CoinCap v3 REST API for historical price
// and technical-indicator series.
//
// Every call degrades to an empty result on failure: network errors,
// non-2xx responses and empty payloads are logged and counted, never
// returned to the caller. Callers that need hard failures should use
// the coinmarketcap client instead.
package coincap

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quantflow/cryptoresearch/internal/core"
	"github.com/quantflow/cryptoresearch/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://rest.coincap.io"
	providerName   = "coincap"
)

// Interval is a CoinCap sampling interval.
type Interval string

const (
	IntervalM1  Interval = "m1"
	IntervalM5  Interval = "m5"
	IntervalM15 Interval = "m15"
	IntervalM30 Interval = "m30"
	IntervalH1  Interval = "h1"
	IntervalH2  Interval = "h2"
	IntervalH6  Interval = "h6"
	IntervalH12 Interval = "h12"
	IntervalD1  Interval = "d1"
)

// DefaultInterval is used when the caller passes an empty or unknown
// interval.
const DefaultInterval = IntervalH1

var validIntervals = map[Interval]bool{
	IntervalM1: true, IntervalM5: true, IntervalM15: true, IntervalM30: true,
	IntervalH1: true, IntervalH2: true, IntervalH6: true, IntervalH12: true,
	IntervalD1: true,
}

// Valid reports whether the interval is one CoinCap accepts.
func (i Interval) Valid() bool {
	return validIntervals[i]
}

// Symbol to CoinCap asset slug mapping. Unknown symbols fall back to
// the lowercased symbol itself, so new assets whose slug matches their
// ticker keep working without a map entry.
var symbolToSlug = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"bnb":   "binance-coin",
	"sol":   "solana",
	"xrp":   "xrp",
	"doge":  "dogecoin",
	"ada":   "cardano",
	"avax":  "avalanche",
	"dot":   "polkadot",
	"link":  "chainlink",
	"uni":   "uniswap",
	"atom":  "cosmos",
	"ltc":   "litecoin",
	"etc":   "ethereum-classic",
	"xlm":   "stellar",
	"algo":  "algorand",
	"near":  "near-protocol",
	"aave":  "aave",
	"arb":   "arbitrum",
	"op":    "optimism",
}

// SlugFor resolves a ticker symbol to a CoinCap asset slug.
// Lookup is case-insensitive; unmapped symbols resolve to their own
// lowercase form.
func SlugFor(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if slug, ok := symbolToSlug[s]; ok {
		return slug
	}
	return s
}

// Client is a stateless CoinCap API client.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     *zap.Logger
	metrics *metrics.Registry
}

// New creates a new CoinCap client. The API key is optional and only
// raises rate limits.
func New(apiKey string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		log:     log,
	}
}

// NewWithBaseURL creates a CoinCap client with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string, log *zap.Logger) *Client {
	c := New(apiKey, log)
	c.baseURL = url
	return c
}

func (c *Client) Name() string {
	return providerName
}

// SetMetrics attaches a metrics registry. A nil registry disables
// instrumentation.
func (c *Client) SetMetrics(reg *metrics.Registry) {
	c.metrics = reg
}

// SetTimeout overrides the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.client.Timeout = d
}

// HistoricalQuotes fetches a price history series for a symbol over
// [start, end]. Rows come back in provider order, timestamps UTC.
// Failures of any kind yield an empty slice.
func (c *Client) HistoricalQuotes(symbol string, start, end time.Time, interval Interval) []core.PricePoint {
	if !interval.Valid() {
		interval = DefaultInterval
	}
	slug := SlugFor(symbol)
	endpoint := fmt.Sprintf("/v3/assets/%s/history", slug)

	params := url.Values{}
	params.Set("interval", string(interval))
	params.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
	params.Set("end", strconv.FormatInt(end.UnixMilli(), 10))

	var result struct {
		Data []struct {
			PriceUSD  flexFloat `json:"priceUsd"`
			Timestamp int64     `json:"time"`
			Date      string    `json:"date"`
		} `json:"data"`
	}

	if !c.get("assets/history", endpoint, params, symbol, &result) {
		return []core.PricePoint{}
	}

	if len(result.Data) == 0 {
		c.swallow("assets/history", "no_data", symbol, nil)
		return []core.PricePoint{}
	}

	points := make([]core.PricePoint, 0, len(result.Data))
	for _, d := range result.Data {
		points = append(points, core.PricePoint{
			Time:  pointTime(d.Date, d.Timestamp),
			Price: float64(d.PriceUSD),
		})
	}
	return points
}

// MACD fetches the provider-computed MACD series for a symbol.
// Histogram comes from the provider and is expected, not forced, to
// equal MACD minus Signal. Failures yield an empty slice.
func (c *Client) MACD(symbol string) []core.MACDPoint {
	slug := SlugFor(symbol)
	endpoint := fmt.Sprintf("/v3/ta/%s/macd", slug)

	var result struct {
		MACD []struct {
			MACD      flexFloat `json:"macd"`
			Signal    flexFloat `json:"signal"`
			Histogram flexFloat `json:"histogram"`
			Timestamp int64     `json:"time"`
			Date      string    `json:"date"`
		} `json:"macd"`
	}

	if !c.get("ta/macd", endpoint, nil, symbol, &result) {
		return []core.MACDPoint{}
	}

	if len(result.MACD) == 0 {
		c.swallow("ta/macd", "no_data", symbol, nil)
		return []core.MACDPoint{}
	}

	points := make([]core.MACDPoint, 0, len(result.MACD))
	for _, d := range result.MACD {
		points = append(points, core.MACDPoint{
			Time:      pointTime(d.Date, d.Timestamp),
			MACD:      float64(d.MACD),
			Signal:    float64(d.Signal),
			Histogram: float64(d.Histogram),
		})
	}
	return points
}

// get issues one GET and decodes the body into out. It reports false
// after logging when anything goes wrong.
func (c *Client) get(name, endpoint string, params url.Values, symbol string, out any) bool {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		c.swallow(name, "bad_request", symbol, err)
		return false
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	startedAt := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(startedAt).Seconds()

	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordProviderRequest(providerName, name, 0, elapsed)
		}
		c.swallow(name, "network", symbol, err)
		return false
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordProviderRequest(providerName, name, resp.StatusCode, elapsed)
	}

	if resp.StatusCode != http.StatusOK {
		c.swallow(name, "http_status", symbol, fmt.Errorf("unexpected status: %d", resp.StatusCode))
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.swallow(name, "decode", symbol, err)
		return false
	}
	return true
}

// swallow logs a degraded call. This is the only trace a caller gets:
// the result is indistinguishable from "no data available".
func (c *Client) swallow(endpoint, reason, symbol string, err error) {
	fields := []zap.Field{
		zap.String("provider", providerName),
		zap.String("endpoint", endpoint),
		zap.String("symbol", symbol),
		zap.String("reason", reason),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	c.log.Warn("coincap request degraded to empty result", fields...)

	if c.metrics != nil {
		c.metrics.RecordSwallowedError(providerName, reason)
	}
}

// pointTime prefers the RFC 3339 date field and falls back to the
// millisecond epoch CoinCap sends alongside it.
func pointTime(date string, ms int64) time.Time {
	if date != "" {
		if t, err := time.Parse(time.RFC3339, date); err == nil {
			return t.UTC()
		}
	}
	return time.UnixMilli(ms).UTC()
}

// flexFloat decodes CoinCap numeric fields, which arrive as JSON
// strings ("93750.12") or plain numbers depending on endpoint.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parsing %q as float: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}
