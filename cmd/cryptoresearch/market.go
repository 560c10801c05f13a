package main

import (
	"github.com/quantflow/cryptoresearch/internal/dataflow"
	"github.com/quantflow/cryptoresearch/internal/logger"
	"github.com/spf13/cobra"
)

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Fetch global market metrics from CoinMarketCap",
	Args:  cobra.NoArgs,
	RunE:  runMarket,
}

func init() {
	rootCmd.AddCommand(marketCmd)
}

func runMarket(cmd *cobra.Command, args []string) error {
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

	metrics, err := dataflow.MarketMetrics(client)
	if err != nil {
		return err
	}

	return printJSON(metrics)
}
