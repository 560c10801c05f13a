package main

import (
	"github.com/quantflow/cryptoresearch/internal/dataflow"
	"github.com/quantflow/cryptoresearch/internal/logger"
	"github.com/spf13/cobra"
)

var quotesCmd = &cobra.Command{
	Use:   "quotes SYMBOL [SYMBOL...]",
	Short: "Fetch latest quote snapshots from CoinMarketCap",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuotes,
}

func init() {
	rootCmd.AddCommand(quotesCmd)
}

func runQuotes(cmd *cobra.Command, args []string) error {
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

	snapshots, err := dataflow.LatestQuotes(client, args)
	if err != nil {
		return err
	}

	return printJSON(snapshots)
}
