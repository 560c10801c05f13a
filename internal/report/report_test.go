package report

import (
	"context"
	"testing"
	"time"

	"github.com/quantflow/cryptoresearch/internal/config"
	"github.com/quantflow/cryptoresearch/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("creating localfs backend: %v", err)
	}
	return NewStore(backend)
}

func testReport() *core.Report {
	return &core.Report{
		ID:       "0f8fad5b-d9cb-469f-a165-70867728950e",
		Ticker:   "BTC",
		Analysis: "# BTC Research\n\nMomentum remains positive.",
		Payload: core.AgentPayload{
			Ticker:     "BTC",
			DataPeriod: core.DataPeriod{Start: "2024-01-01", End: "2024-01-31"},
		},
		Model:       "claude",
		GeneratedAt: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.Save(ctx, testReport())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	want := "reports/BTC/2024-02-01/0f8fad5b-d9cb-469f-a165-70867728950e.json"
	if key != want {
		t.Errorf("unexpected key: %s", key)
	}

	loaded, err := store.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Ticker != "BTC" {
		t.Errorf("unexpected ticker: %s", loaded.Ticker)
	}
	if loaded.Analysis == "" {
		t.Error("expected analysis text to round-trip")
	}
	if loaded.Payload.DataPeriod.Start != "2024-01-01" {
		t.Errorf("payload period lost: %+v", loaded.Payload.DataPeriod)
	}
}

func TestStore_SaveWritesMarkdown(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, testReport()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	keys, err := store.List(ctx, "BTC")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected json + md artifacts, got %v", keys)
	}
}

func TestStore_List_EmptyTicker(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, testReport()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	keys, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) == 0 {
		t.Error("expected all reports when ticker is empty")
	}
}

func TestStore_List_MissingTicker(t *testing.T) {
	store := newTestStore(t)

	keys, err := store.List(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no keys, got %v", keys)
	}
}

func TestNewStoreFromConfig(t *testing.T) {
	store, err := NewStoreFromConfig(config.ReportsConfig{Type: "localfs", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store == nil {
		t.Fatal("expected non-nil store")
	}

	if _, err := NewStoreFromConfig(config.ReportsConfig{Type: "ftp"}); err == nil {
		t.Error("expected error for unknown backend type")
	}
}
