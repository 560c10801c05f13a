package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/quantflow/cryptoresearch/internal/dataflow"
	"github.com/quantflow/cryptoresearch/internal/llm/factory"
	"github.com/quantflow/cryptoresearch/internal/logger"
	"github.com/quantflow/cryptoresearch/internal/metrics"
	"github.com/quantflow/cryptoresearch/internal/report"
	"github.com/quantflow/cryptoresearch/internal/research"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	researchStart   string
	researchEnd     string
	researchNoStore bool
)

var researchCmd = &cobra.Command{
	Use:   "research SYMBOL",
	Short: "Run an LLM research report over market data for a symbol",
	Long: `Builds an agent payload (price history, fundamentals, global market
metrics) for the symbol, sends it to the configured LLM provider and
archives the resulting report.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	today := time.Now().UTC().Format(dataflow.DateLayout)
	monthAgo := time.Now().UTC().AddDate(0, -1, 0).Format(dataflow.DateLayout)

	researchCmd.Flags().StringVar(&researchStart, "start", monthAgo, "start date (YYYY-MM-DD)")
	researchCmd.Flags().StringVar(&researchEnd, "end", today, "end date (YYYY-MM-DD)")
	researchCmd.Flags().BoolVar(&researchNoStore, "no-store", false, "print the report without archiving it")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := newFundamentalsClient(cfg, log)
	if err != nil {
		return err
	}

	model, err := factory.New(cfg.LLM)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	data.SetMetrics(reg)
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, reg.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		log.Info("metrics exposition started",
			zap.String("addr", cfg.Metrics.Addr),
			zap.String("path", cfg.Metrics.Path))
	}

	agent := research.New(data, model, log)
	agent.SetMetrics(reg)

	if !researchNoStore {
		store, err := report.NewStoreFromConfig(cfg.Reports)
		if err != nil {
			return err
		}
		agent.SetStore(store)
	}

	rep, err := agent.Run(context.Background(), args[0], researchStart, researchEnd)
	if err != nil {
		return err
	}

	fmt.Printf("report %s (%s, model %s)\n\n", rep.ID, rep.Ticker, rep.Model)
	fmt.Println(rep.Analysis)
	return nil
}
