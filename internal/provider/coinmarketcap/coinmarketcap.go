// Package coinmarketcap wraps the CoinMarketCap Pro REST API for
// quotes, historical OHLCV, asset metadata and global market metrics.
//
// Unlike the coincap client, every failure here surfaces as an error:
// a missing API key, an unknown symbol or an upstream failure is the
// caller's problem to handle.
package coinmarketcap

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quantflow/cryptoresearch/internal/core"
	"github.com/quantflow/cryptoresearch/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://pro-api.coinmarketcap.com"
	providerName   = "coinmarketcap"

	// EnvAPIKey is consulted when no key is passed explicitly.
	EnvAPIKey = "COINMARKETCAP_API_KEY"
)

// QuoteEntry is the per-currency quote block CoinMarketCap nests
// under each asset.
type QuoteEntry struct {
	Price            float64 `json:"price"`
	Volume24h        float64 `json:"volume_24h"`
	VolumeChange24h  float64 `json:"volume_change_24h"`
	PercentChange1h  float64 `json:"percent_change_1h"`
	PercentChange24h float64 `json:"percent_change_24h"`
	PercentChange7d  float64 `json:"percent_change_7d"`
	MarketCap        float64 `json:"market_cap"`
	LastUpdated      string  `json:"last_updated"`
}

// QuoteData is one asset entry of the quotes/latest response, keyed
// by numeric-ID string in the enclosing data map.
type QuoteData struct {
	ID          int                   `json:"id"`
	Name        string                `json:"name"`
	Symbol      string                `json:"symbol"`
	Slug        string                `json:"slug"`
	LastUpdated string                `json:"last_updated"`
	Quote       map[string]QuoteEntry `json:"quote"`
}

// GlobalQuote is the per-currency block of the global-metrics response.
type GlobalQuote struct {
	TotalMarketCap float64 `json:"total_market_cap"`
	TotalVolume24h float64 `json:"total_volume_24h"`
}

// GlobalData is the global-metrics payload.
type GlobalData struct {
	BTCDominance    float64                `json:"btc_dominance"`
	ETHDominance    float64                `json:"eth_dominance"`
	ActiveCryptos   int                    `json:"active_cryptocurrencies"`
	ActiveExchanges int                    `json:"active_exchanges"`
	Quote           map[string]GlobalQuote `json:"quote"`
}

// statusEnvelope is the status block every CoinMarketCap response carries.
type statusEnvelope struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Client is a CoinMarketCap Pro API client. The symbol-to-ID cache is
// populated on first use and lives for the client's lifetime.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *zap.Logger
	metrics *metrics.Registry

	idCache map[string]int
}

// New creates a CoinMarketCap client. An empty apiKey falls back to
// the COINMARKETCAP_API_KEY environment variable; with neither the
// constructor fails before any network call.
func New(apiKey string, log *zap.Logger) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvAPIKey)
	}
	if apiKey == "" {
		return nil, core.ErrAPIKeyMissing
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}, nil
}

// NewWithBaseURL creates a client with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string, log *zap.Logger) (*Client, error) {
	c, err := New(apiKey, log)
	if err != nil {
		return nil, err
	}
	c.baseURL = url
	return c, nil
}

func (c *Client) Name() string {
	return providerName
}

// BaseURL reports the endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
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

// CryptoMap fetches the full symbol directory: uppercase ticker to
// CoinMarketCap numeric ID.
func (c *Client) CryptoMap() (map[string]int, error) {
	var result struct {
		Data []struct {
			ID     int    `json:"id"`
			Symbol string `json:"symbol"`
		} `json:"data"`
	}

	params := url.Values{}
	params.Set("listing_status", "active")

	if err := c.get("cryptocurrency/map", "/v1/cryptocurrency/map", params, &result); err != nil {
		return nil, err
	}

	m := make(map[string]int, len(result.Data))
	for _, entry := range result.Data {
		symbol := strings.ToUpper(entry.Symbol)
		// First listing wins; CMC orders the map by rank.
		if _, ok := m[symbol]; !ok {
			m[symbol] = entry.ID
		}
	}
	return m, nil
}

// CryptoID resolves a ticker symbol to its numeric ID. The directory
// is fetched once per client and cached.
func (c *Client) CryptoID(symbol string) (int, error) {
	if c.idCache == nil {
		m, err := c.CryptoMap()
		if err != nil {
			return 0, err
		}
		c.idCache = m
	}

	id, ok := c.idCache[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return 0, core.WrapError(core.ErrSymbolNotFound,
			fmt.Errorf("symbol %q not found in CoinMarketCap map", symbol))
	}
	return id, nil
}

// LatestQuote fetches the latest quotes for the given symbols, keyed
// by numeric-ID string as CoinMarketCap returns them.
func (c *Client) LatestQuote(symbols []string) (map[string]QuoteData, error) {
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		id, err := c.CryptoID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, strconv.Itoa(id))
	}

	params := url.Values{}
	params.Set("id", strings.Join(ids, ","))
	params.Set("convert", core.Currency)

	var result struct {
		Data map[string]QuoteData `json:"data"`
	}
	if err := c.get("quotes/latest", "/v2/cryptocurrency/quotes/latest", params, &result); err != nil {
		return nil, err
	}

	if len(result.Data) == 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("no quotes returned for %s", strings.Join(symbols, ",")))
	}
	return result.Data, nil
}

// HistoricalQuotes fetches daily OHLCV candles for a symbol over
// [start, end], in the chronological order CoinMarketCap returns.
func (c *Client) HistoricalQuotes(symbol string, start, end time.Time) ([]core.OHLCV, error) {
	id, err := c.CryptoID(symbol)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("id", strconv.Itoa(id))
	params.Set("time_start", start.UTC().Format("2006-01-02"))
	params.Set("time_end", end.UTC().Format("2006-01-02"))
	params.Set("interval", "daily")
	params.Set("convert", core.Currency)

	var result struct {
		Data struct {
			Quotes []struct {
				TimeOpen string `json:"time_open"`
				Quote    map[string]struct {
					Open      float64 `json:"open"`
					High      float64 `json:"high"`
					Low       float64 `json:"low"`
					Close     float64 `json:"close"`
					Volume    float64 `json:"volume"`
					Timestamp string  `json:"timestamp"`
				} `json:"quote"`
			} `json:"quotes"`
		} `json:"data"`
	}

	if err := c.get("ohlcv/historical", "/v2/cryptocurrency/ohlcv/historical", params, &result); err != nil {
		return nil, err
	}

	candles := make([]core.OHLCV, 0, len(result.Data.Quotes))
	for _, q := range result.Data.Quotes {
		usd, ok := q.Quote[core.Currency]
		if !ok {
			continue
		}
		candles = append(candles, core.OHLCV{
			Time:   parseTimestamp(q.TimeOpen),
			Open:   usd.Open,
			High:   usd.High,
			Low:    usd.Low,
			Close:  usd.Close,
			Volume: usd.Volume,
		})
	}

	if len(candles) == 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("no historical quotes for %s between %s and %s",
				symbol, start.Format("2006-01-02"), end.Format("2006-01-02")))
	}
	return candles, nil
}

// CryptoInfo fetches static metadata for the given symbols, keyed by
// numeric-ID string.
func (c *Client) CryptoInfo(symbols []string) (map[string]core.AssetInfo, error) {
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		id, err := c.CryptoID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, strconv.Itoa(id))
	}

	params := url.Values{}
	params.Set("id", strings.Join(ids, ","))

	var result struct {
		Data map[string]struct {
			ID          int    `json:"id"`
			Name        string `json:"name"`
			Symbol      string `json:"symbol"`
			Slug        string `json:"slug"`
			Description string `json:"description"`
			Category    string `json:"category"`
			URLs        struct {
				Website []string `json:"website"`
			} `json:"urls"`
		} `json:"data"`
	}

	if err := c.get("cryptocurrency/info", "/v2/cryptocurrency/info", params, &result); err != nil {
		return nil, err
	}

	info := make(map[string]core.AssetInfo, len(result.Data))
	for key, d := range result.Data {
		website := ""
		if len(d.URLs.Website) > 0 {
			website = d.URLs.Website[0]
		}
		info[key] = core.AssetInfo{
			ID:          d.ID,
			Symbol:      d.Symbol,
			Name:        d.Name,
			Slug:        d.Slug,
			Description: d.Description,
			Category:    d.Category,
			Website:     website,
		}
	}
	return info, nil
}

// GlobalMetrics fetches aggregate market totals and dominance figures.
func (c *Client) GlobalMetrics() (*GlobalData, error) {
	params := url.Values{}
	params.Set("convert", core.Currency)

	var result struct {
		Data GlobalData `json:"data"`
	}
	if err := c.get("global-metrics", "/v1/global-metrics/quotes/latest", params, &result); err != nil {
		return nil, err
	}

	if _, ok := result.Data.Quote[core.Currency]; !ok {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("global metrics missing %s quote", core.Currency))
	}
	return &result.Data, nil
}

// get issues one authenticated GET and decodes the response,
// translating transport and API-level failures into errors.
func (c *Client) get(name, endpoint string, params url.Values, out any) error {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return core.WrapError(core.ErrProviderFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)

	startedAt := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(startedAt).Seconds()

	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordProviderRequest(providerName, name, 0, elapsed)
		}
		return core.WrapError(core.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordProviderRequest(providerName, name, resp.StatusCode, elapsed)
	}

	var envelope struct {
		Status statusEnvelope `json:"status"`
	}

	body := json.NewDecoder(resp.Body)
	raw := json.RawMessage{}
	if err := body.Decode(&raw); err != nil {
		return core.WrapError(core.ErrBadResponse, err)
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return core.WrapError(core.ErrBadResponse, err)
	}

	if resp.StatusCode != http.StatusOK || envelope.Status.ErrorCode != 0 {
		msg := envelope.Status.ErrorMessage
		if msg == "" {
			msg = fmt.Sprintf("unexpected status: %d", resp.StatusCode)
		}
		c.log.Error("coinmarketcap request failed",
			zap.String("endpoint", name),
			zap.Int("http_status", resp.StatusCode),
			zap.Int("error_code", envelope.Status.ErrorCode),
			zap.String("error_message", envelope.Status.ErrorMessage),
		)
		return core.WrapError(core.ErrProviderFailed, fmt.Errorf("%s", msg))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return core.WrapError(core.ErrBadResponse, err)
	}
	return nil
}

// parseTimestamp handles the ISO 8601 timestamps CMC uses, with or
// without fractional seconds.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
