package coincap

import (
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSlugFor(t *testing.T) {
	tests := []struct {
		symbol   string
		expected string
	}{
		{"btc", "bitcoin"},
		{"BTC", "bitcoin"},
		{"Btc", "bitcoin"},
		{"ETH", "ethereum"},
		{"doge", "dogecoin"},
		{"NEWCOIN", "newcoin"}, // Unknown symbol falls back to its lowercase form
		{" sol ", "solana"},
	}

	for _, tc := range tests {
		if got := SlugFor(tc.symbol); got != tc.expected {
			t.Errorf("SlugFor(%q) = %q, want %q", tc.symbol, got, tc.expected)
		}
	}
}

func TestInterval_Valid(t *testing.T) {
	for _, i := range []Interval{IntervalM1, IntervalM5, IntervalM15, IntervalM30, IntervalH1, IntervalH2, IntervalH6, IntervalH12, IntervalD1} {
		if !i.Valid() {
			t.Errorf("expected %s to be valid", i)
		}
	}
	if Interval("h3").Valid() {
		t.Error("h3 should not be valid")
	}
	if Interval("").Valid() {
		t.Error("empty interval should not be valid")
	}
}

func TestClient_HistoricalQuotes(t *testing.T) {
	var gotPath, gotAuth, gotInterval string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotInterval = r.URL.Query().Get("interval")

		fmt.Fprint(w, `{"data":[
			{"priceUsd":"42000.5","time":1704067200000,"date":"2024-01-01T00:00:00.000Z"},
			{"priceUsd":"42100.25","time":1704070800000,"date":"2024-01-01T01:00:00.000Z"},
			{"priceUsd":"41990.0","time":1704074400000,"date":"2024-01-01T02:00:00.000Z"}
		]}`)
	}))
	defer server.Close()

	c := NewWithBaseURL("test-token", server.URL, zap.NewNop())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	points := c.HistoricalQuotes("BTC", start, end, IntervalH1)

	if gotPath != "/v3/assets/bitcoin/history" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotInterval != "h1" {
		t.Errorf("expected interval h1, got %q", gotInterval)
	}

	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}

	if points[0].Price != 42000.5 {
		t.Errorf("unexpected first price: %f", points[0].Price)
	}

	// Rows keep provider order; timestamps must be non-decreasing.
	for i := 1; i < len(points); i++ {
		if points[i].Time.Before(points[i-1].Time) {
			t.Errorf("timestamps out of order at row %d", i)
		}
	}

	if !points[0].Time.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected first timestamp: %v", points[0].Time)
	}
}

func TestClient_HistoricalQuotes_DefaultsUnknownInterval(t *testing.T) {
	var gotInterval string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotInterval = r.URL.Query().Get("interval")
		fmt.Fprint(w, `{"data":[{"priceUsd":"1.0","time":1704067200000,"date":"2024-01-01T00:00:00.000Z"}]}`)
	}))
	defer server.Close()

	c := NewWithBaseURL("", server.URL, zap.NewNop())
	c.HistoricalQuotes("BTC", time.Now().Add(-time.Hour), time.Now(), "")

	if gotInterval != string(DefaultInterval) {
		t.Errorf("expected default interval %s, got %q", DefaultInterval, gotInterval)
	}
}

func TestClient_HistoricalQuotes_NoBearerWithoutKey(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	c := NewWithBaseURL("", server.URL, zap.NewNop())
	c.HistoricalQuotes("BTC", time.Now().Add(-time.Hour), time.Now(), IntervalH1)

	if gotAuth != "" {
		t.Errorf("expected no auth header, got %q", gotAuth)
	}
}

func TestClient_HistoricalQuotes_SwallowsFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) *Client
	}{
		{
			name: "http error status",
			setup: func(t *testing.T) *Client {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					http.Error(w, "rate limited", http.StatusTooManyRequests)
				}))
				t.Cleanup(server.Close)
				return NewWithBaseURL("", server.URL, zap.NewNop())
			},
		},
		{
			name: "connection refused",
			setup: func(t *testing.T) *Client {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
				server.Close() // Closed before use
				return NewWithBaseURL("", server.URL, zap.NewNop())
			},
		},
		{
			name: "timeout",
			setup: func(t *testing.T) *Client {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					time.Sleep(200 * time.Millisecond)
					fmt.Fprint(w, `{"data":[]}`)
				}))
				t.Cleanup(server.Close)
				c := NewWithBaseURL("", server.URL, zap.NewNop())
				c.SetTimeout(20 * time.Millisecond)
				return c
			},
		},
		{
			name: "malformed body",
			setup: func(t *testing.T) *Client {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					fmt.Fprint(w, `<html>maintenance</html>`)
				}))
				t.Cleanup(server.Close)
				return NewWithBaseURL("", server.URL, zap.NewNop())
			},
		},
		{
			name: "empty data array",
			setup: func(t *testing.T) *Client {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					fmt.Fprint(w, `{"data":[]}`)
				}))
				t.Cleanup(server.Close)
				return NewWithBaseURL("", server.URL, zap.NewNop())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.setup(t)
			points := c.HistoricalQuotes("BTC", time.Now().Add(-time.Hour), time.Now(), IntervalH1)
			if points == nil {
				t.Fatal("expected empty slice, got nil")
			}
			if len(points) != 0 {
				t.Errorf("expected empty result, got %d rows", len(points))
			}
		})
	}
}

func TestClient_MACD(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"macd":[
			{"macd":120.5,"signal":100.2,"histogram":20.3,"time":1704067200000,"date":"2024-01-01T00:00:00.000Z"},
			{"macd":"118.0","signal":"101.5","histogram":"16.5","time":1704153600000,"date":"2024-01-02T00:00:00.000Z"},
			{"macd":110.1,"signal":102.0,"histogram":8.1,"time":1704240000000,"date":"2024-01-03T00:00:00.000Z"}
		]}`)
	}))
	defer server.Close()

	c := NewWithBaseURL("", server.URL, zap.NewNop())
	points := c.MACD("eth")

	if gotPath != "/v3/ta/ethereum/macd" {
		t.Errorf("unexpected path: %s", gotPath)
	}

	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}

	for i, p := range points {
		if diff := math.Abs(p.Histogram - (p.MACD - p.Signal)); diff > 0.01 {
			t.Errorf("row %d: histogram %f deviates from macd-signal by %f", i, p.Histogram, diff)
		}
		if i > 0 && p.Time.Before(points[i-1].Time) {
			t.Errorf("timestamps out of order at row %d", i)
		}
	}
}

func TestClient_MACD_SwallowsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewWithBaseURL("", server.URL, zap.NewNop())
	points := c.MACD("BTC")

	if points == nil || len(points) != 0 {
		t.Errorf("expected empty slice, got %v", points)
	}
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		raw      string
		expected float64
	}{
		{`"42000.5"`, 42000.5},
		{`42000.5`, 42000.5},
		{`"0"`, 0},
		{`null`, 0},
	}

	for _, tc := range tests {
		var f flexFloat
		if err := f.UnmarshalJSON([]byte(tc.raw)); err != nil {
			t.Errorf("UnmarshalJSON(%s) failed: %v", tc.raw, err)
			continue
		}
		if float64(f) != tc.expected {
			t.Errorf("UnmarshalJSON(%s) = %f, want %f", tc.raw, float64(f), tc.expected)
		}
	}

	var f flexFloat
	if err := f.UnmarshalJSON([]byte(`"not-a-number"`)); err == nil {
		t.Error("expected error for non-numeric string")
	}
}
