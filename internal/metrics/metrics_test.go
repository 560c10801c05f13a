package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	// Should have go runtime metrics at minimum
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func TestRegistry_RecordProviderRequest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordProviderRequest("coincap", "assets/history", 200, 0.05)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	found := false
	for _, mf := range mfs {
		if mf.GetName() == "cryptoresearch_provider_requests_total" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected cryptoresearch_provider_requests_total metric")
	}
}

func TestRegistry_RecordSwallowedError(t *testing.T) {
	reg := NewRegistry()

	reg.RecordSwallowedError("coincap", "timeout")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	found := false
	for _, mf := range mfs {
		if mf.GetName() == "cryptoresearch_swallowed_errors_total" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected cryptoresearch_swallowed_errors_total metric")
	}
}

func TestStatusToString(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{429, "4xx"},
		{500, "5xx"},
		{0, "error"},
	}

	for _, tc := range tests {
		if got := statusToString(tc.status); got != tc.expected {
			t.Errorf("statusToString(%d) = %s, want %s", tc.status, got, tc.expected)
		}
	}
}

func TestRegistry_Handler(t *testing.T) {
	reg := NewRegistry()
	reg.RecordReport("success", 2.5)

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
