// Package research runs the analysis pipeline: assemble an agent
// payload from market data, hand it to an LLM, archive the result.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantflow/cryptoresearch/internal/core"
	"github.com/quantflow/cryptoresearch/internal/dataflow"
	"github.com/quantflow/cryptoresearch/internal/llm"
	"github.com/quantflow/cryptoresearch/internal/metrics"
	"github.com/quantflow/cryptoresearch/internal/report"
	"go.uber.org/zap"
)

const systemPrompt = `You are a cryptocurrency research analyst. You receive a JSON
payload with price history, fundamentals and aggregate market metrics for one
asset. Write a concise markdown research note covering: recent price action,
relative standing versus the overall market, and notable risks. Base every
claim on the payload; do not invent numbers.`

// Agent orchestrates one research run per call. It is synchronous and
// holds no state between runs.
type Agent struct {
	data    dataflow.FundamentalsProvider
	model   llm.Provider
	store   *report.Store
	log     *zap.Logger
	metrics *metrics.Registry
}

// New creates a research agent. The store is optional; without one,
// reports are returned but not archived.
func New(data dataflow.FundamentalsProvider, model llm.Provider, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{
		data:  data,
		model: model,
		log:   log,
	}
}

// SetStore attaches a report archive.
func (a *Agent) SetStore(store *report.Store) {
	a.store = store
}

// SetMetrics attaches a metrics registry.
func (a *Agent) SetMetrics(reg *metrics.Registry) {
	a.metrics = reg
}

// Run produces a research report for one symbol over a calendar date
// range ("YYYY-MM-DD", inclusive).
func (a *Agent) Run(ctx context.Context, symbol, startDate, endDate string) (*core.Report, error) {
	startedAt := time.Now()

	payload, err := dataflow.FormatForAgents(a.data, symbol, startDate, endDate)
	if err != nil {
		a.recordRun("payload_failed", startedAt)
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.RecordPayload()
	}

	prompt, err := buildPrompt(payload)
	if err != nil {
		a.recordRun("prompt_failed", startedAt)
		return nil, core.WrapError(core.ErrReportFailed, err)
	}

	resp, err := a.model.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Prompt:       prompt,
		MaxTokens:    4096,
		Temperature:  0.3,
	})
	if err != nil {
		a.recordRun("llm_failed", startedAt)
		return nil, core.WrapError(core.ErrLLMFailed, err)
	}

	rpt := &core.Report{
		ID:          uuid.NewString(),
		Ticker:      payload.Ticker,
		Analysis:    resp.Content,
		Payload:     *payload,
		Model:       resp.Model,
		GeneratedAt: time.Now().UTC(),
	}

	if a.store != nil {
		key, err := a.store.Save(ctx, rpt)
		if err != nil {
			a.recordRun("archive_failed", startedAt)
			return nil, err
		}
		a.log.Info("research report archived",
			zap.String("ticker", rpt.Ticker),
			zap.String("report_id", rpt.ID),
			zap.String("key", key),
		)
	}

	a.log.Info("research run complete",
		zap.String("ticker", rpt.Ticker),
		zap.String("report_id", rpt.ID),
		zap.String("model", rpt.Model),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(startedAt)),
	)
	a.recordRun("success", startedAt)
	return rpt, nil
}

func (a *Agent) recordRun(status string, startedAt time.Time) {
	if a.metrics != nil {
		a.metrics.RecordReport(status, time.Since(startedAt).Seconds())
	}
}

// buildPrompt frames the payload for the model. The JSON is indented
// so row counts stay legible in archived prompts.
func buildPrompt(payload *core.AgentPayload) (string, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}
	return fmt.Sprintf("Research data for %s (%s to %s):\n\n```json\n%s\n```",
		payload.Ticker, payload.DataPeriod.Start, payload.DataPeriod.End, data), nil
}
