package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spacesedan/feedbackflow/config"
	"github.com/spacesedan/feedbackflow/internal/analysis"
	"github.com/spacesedan/feedbackflow/internal/clients"
	"github.com/spacesedan/feedbackflow/internal/db"
	"github.com/spacesedan/feedbackflow/internal/ingest"
	"github.com/spacesedan/feedbackflow/internal/reports"
	"github.com/spacesedan/feedbackflow/internal/sentiment"
)

// Deps is the analysis and storage graph every binary runs on.
type Deps struct {
	Analyzer *analysis.BatchAnalyzer
	Store    db.Store
	Valkey   *clients.ValkeyClient // nil when VALKEY_INIT_ADDRESS is unset
	Reports  *reports.Service
	Pipeline *ingest.Pipeline
}

// NewAnalyzer builds the batch analyzer for the configured engine.
func NewAnalyzer(cfg config.AnalysisConfig) (*analysis.BatchAnalyzer, error) {
	lex, err := sentiment.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		return nil, err
	}
	scorer, err := sentiment.NewScorer(cfg.Engine, lex)
	if err != nil {
		return nil, err
	}
	slog.Info("[Bootstrap] Sentiment scorer ready",
		slog.String("engine", cfg.Engine),
		slog.Int("workers", cfg.Workers))
	return analysis.NewBatchAnalyzer(scorer, analysis.WithWorkers(cfg.Workers)), nil
}

// Build opens the store and the optional Valkey cache and wires the report
// service and ingest pipeline on top. Callers own Close.
func Build(ctx context.Context, cfg config.Config) (*Deps, error) {
	analyzer, err := NewAnalyzer(cfg.Analysis)
	if err != nil {
		return nil, fmt.Errorf("init analyzer: %w", err)
	}

	store, err := db.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	deps := &Deps{Analyzer: analyzer, Store: store}

	reportOpts := []reports.Option{
		reports.WithSummaryOptions(analysis.ExcludeUnknownLabels(cfg.Analysis.SummaryExcludeUnknown)),
	}
	if cfg.Valkey.Enabled() {
		vc, err := clients.InitValkey(cfg.Valkey)
		if err != nil {
			// reports still work uncached
			slog.Warn("[Bootstrap] Valkey unavailable, running without cache",
				slog.String("error", err.Error()))
		} else {
			deps.Valkey = vc
			reportOpts = append(reportOpts, reports.WithCache(vc, cfg.ReportCacheTTL))
		}
	}

	deps.Reports = reports.NewService(store, reportOpts...)
	deps.Pipeline = ingest.NewPipeline(analyzer, store, deps.Reports)
	return deps, nil
}

func (d *Deps) Close() {
	if d.Valkey != nil {
		d.Valkey.Close()
	}
	if err := d.Store.Close(); err != nil {
		slog.Warn("[Bootstrap] Failed to close store", slog.String("error", err.Error()))
	}
}
