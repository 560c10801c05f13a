package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantflow/cryptoresearch/internal/config"
	"github.com/quantflow/cryptoresearch/internal/dataflow"
	"github.com/quantflow/cryptoresearch/internal/logger"
	"github.com/quantflow/cryptoresearch/internal/provider/coinmarketcap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fundamentalsCmd = &cobra.Command{
	Use:   "fundamentals SYMBOL",
	Short: "Fetch merged quote and metadata for a symbol from CoinMarketCap",
	Args:  cobra.ExactArgs(1),
	RunE:  runFundamentals,
}

func init() {
	rootCmd.AddCommand(fundamentalsCmd)
}

// newFundamentalsClient builds a CoinMarketCap client from config; it
// fails before any network call when no API key is available.
func newFundamentalsClient(cfg *config.Config, log *zap.Logger) (*coinmarketcap.Client, error) {
	client, err := coinmarketcap.NewWithBaseURL(cfg.CoinMarketCap.APIKey, cfg.CoinMarketCap.BaseURL, log)
	if err != nil {
		return nil, err
	}
	if cfg.CoinMarketCap.TimeoutSeconds > 0 {
		client.SetTimeout(time.Duration(cfg.CoinMarketCap.TimeoutSeconds) * time.Second)
	}
	return client, nil
}

func runFundamentals(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newFundamentalsClient(cfg, log)
	if err != nil {
		return err
	}

	fundamentals, err := dataflow.Fundamentals(client, args[0])
	if err != nil {
		return err
	}

	return printJSON(fundamentals)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
