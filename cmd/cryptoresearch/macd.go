package main

import (
	"fmt"
	"time"

	"github.com/quantflow/cryptoresearch/internal/logger"
	"github.com/quantflow/cryptoresearch/internal/provider/coincap"
	"github.com/spf13/cobra"
)

var macdCmd = &cobra.Command{
	Use:   "macd SYMBOL",
	Short: "Fetch the MACD indicator series from CoinCap",
	Args:  cobra.ExactArgs(1),
	RunE:  runMACD,
}

func init() {
	rootCmd.AddCommand(macdCmd)
}

func runMACD(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := coincap.NewWithBaseURL(cfg.CoinCap.APIKey, cfg.CoinCap.BaseURL, log)
	if cfg.CoinCap.TimeoutSeconds > 0 {
		client.SetTimeout(time.Duration(cfg.CoinCap.TimeoutSeconds) * time.Second)
	}

	points := client.MACD(args[0])
	if len(points) == 0 {
		fmt.Println("no data")
		return nil
	}

	fmt.Printf("%-25s %12s %12s %12s\n", "Date", "MACD", "Signal", "Histogram")
	for _, p := range points {
		fmt.Printf("%-25s %12.4f %12.4f %12.4f\n",
			p.Time.Format(time.RFC3339), p.MACD, p.Signal, p.Histogram)
	}
	fmt.Printf("\n%d rows\n", len(points))
	return nil
}
