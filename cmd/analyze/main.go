// Command analyze scores the feedback column of a CSV file offline and
// prints the records, the sentiment summary and the top negative keywords
// as JSON. Nothing is stored.
//
//	go run ./cmd/analyze -input feedback.csv -keywords 10
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/spacesedan/feedbackflow/config"
	"github.com/spacesedan/feedbackflow/internal/analysis"
	"github.com/spacesedan/feedbackflow/internal/app"
	"github.com/spacesedan/feedbackflow/internal/ingest"
	"github.com/spacesedan/feedbackflow/internal/logging"
	"github.com/spacesedan/feedbackflow/internal/models"
	"github.com/spacesedan/feedbackflow/internal/sentiment"
)

type output struct {
	Column   string                  `json:"column"`
	Records  []models.FeedbackRecord `json:"records,omitempty"`
	Summary  models.SentimentSummary `json:"summary"`
	Keywords []models.KeywordEntry   `json:"negative_keywords"`
}

func main() {
	inputPath := flag.String("input", "", "path to a feedback CSV file")
	keywordLimit := flag.Int("keywords", 10, "number of negative keywords to report")
	markdown := flag.Bool("markdown", false, "treat feedback cells as markdown")
	summaryOnly := flag.Bool("summary-only", false, "omit per-record output")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: analyze -input <file.csv> [-keywords n] [-markdown] [-summary-only]\n")
		os.Exit(2)
	}

	cfg := config.Load()
	// logs go to stdout, keep them quiet so the JSON stays parseable
	logging.InitLogger("error")

	analyzer, err := app.NewAnalyzer(cfg.Analysis)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: open input: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	parsed, err := ingest.ReadFeedbackCSV(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}

	var pre analysis.Preprocessor
	if *markdown {
		pre = sentiment.MarkdownToText
	}
	records := analyzer.AnalyzeWith(parsed.Texts, pre)

	out := buildOutput(parsed.Column, records, *keywordLimit, cfg.Analysis.SummaryExcludeUnknown)
	if *summaryOnly {
		out.Records = nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: write output: %v\n", err)
		os.Exit(1)
	}
}

func buildOutput(column string, records []models.FeedbackRecord, keywordLimit int, excludeUnknown bool) output {
	labels := make([]string, len(records))
	var negative []string
	for i, r := range records {
		labels[i] = r.SentimentLabel.String()
		if r.SentimentLabel == models.LabelNegative {
			negative = append(negative, r.ProcessedText)
		}
	}

	return output{
		Column:   column,
		Records:  records,
		Summary:  analysis.Summarize(labels, analysis.ExcludeUnknownLabels(excludeUnknown)),
		Keywords: analysis.TopKeywords(negative, keywordLimit),
	}
}
