// Package report persists research output to a pluggable archive:
// local filesystem by default, S3-compatible object storage when
// configured.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/quantflow/cryptoresearch/internal/config"
	"github.com/quantflow/cryptoresearch/internal/core"
)

// Storage defines the interface for archive backends
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Store archives research reports on a Storage backend, keyed by
// ticker and generation date.
type Store struct {
	backend Storage
}

// NewStore creates a report store on the given backend.
func NewStore(backend Storage) *Store {
	return &Store{backend: backend}
}

// NewStoreFromConfig builds a store from the reports config section.
func NewStoreFromConfig(cfg config.ReportsConfig) (*Store, error) {
	switch cfg.Type {
	case "", "localfs":
		p := cfg.Path
		if p == "" {
			p = "reports"
		}
		backend, err := NewLocalFS(p)
		if err != nil {
			return nil, err
		}
		return NewStore(backend), nil
	case "s3":
		backend, err := NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return NewStore(backend), nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown reports type %q", cfg.Type))
	}
}

// reportKey is reports/{TICKER}/{YYYY-MM-DD}/{id}.json
func reportKey(r *core.Report) string {
	return path.Join("reports", r.Ticker, r.GeneratedAt.UTC().Format("2006-01-02"), r.ID+".json")
}

func analysisKey(r *core.Report) string {
	return path.Join("reports", r.Ticker, r.GeneratedAt.UTC().Format("2006-01-02"), r.ID+".md")
}

// Save archives a report as JSON alongside a markdown rendering of
// the analysis. It returns the JSON key.
func (s *Store) Save(ctx context.Context, r *core.Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", core.WrapError(core.ErrReportFailed, err)
	}

	key := reportKey(r)
	if err := s.backend.Write(ctx, key, data); err != nil {
		return "", core.WrapError(core.ErrReportFailed, err)
	}

	if err := s.backend.Write(ctx, analysisKey(r), []byte(r.Analysis)); err != nil {
		return "", core.WrapError(core.ErrReportFailed, err)
	}
	return key, nil
}

// Load reads a previously archived report by key.
func (s *Store) Load(ctx context.Context, key string) (*core.Report, error) {
	data, err := s.backend.Read(ctx, key)
	if err != nil {
		return nil, core.WrapError(core.ErrReportFailed, err)
	}

	var r core.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, core.WrapError(core.ErrReportFailed, err)
	}
	return &r, nil
}

// List returns archived report keys for a ticker; an empty ticker
// lists everything.
func (s *Store) List(ctx context.Context, ticker string) ([]string, error) {
	prefix := "reports"
	if ticker != "" {
		prefix = path.Join(prefix, ticker)
	}
	return s.backend.List(ctx, prefix)
}
