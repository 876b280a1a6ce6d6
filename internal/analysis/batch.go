package analysis

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/spacesedan/feedbackflow/internal/models"
	"github.com/spacesedan/feedbackflow/internal/processing"
	"github.com/spacesedan/feedbackflow/internal/sentiment"
)

// Preprocessor rewrites raw text before scoring and tokenizing, for example
// to strip markdown. FeedbackText always keeps the raw input.
type Preprocessor func(text string) string

type BatchAnalyzer struct {
	scorer  sentiment.Scorer
	workers int
}

type Option func(*BatchAnalyzer)

// WithWorkers caps the number of concurrently analyzed items.
func WithWorkers(n int) Option {
	return func(a *BatchAnalyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

func NewBatchAnalyzer(scorer sentiment.Scorer, opts ...Option) *BatchAnalyzer {
	a := &BatchAnalyzer{
		scorer:  scorer,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns one record per input in input order. Empty inputs still
// produce a Neutral record, and an item that fails to analyze is replaced by
// the Neutral default instead of failing the batch.
func (a *BatchAnalyzer) Analyze(texts []string) []models.FeedbackRecord {
	return a.AnalyzeWith(texts, nil)
}

func (a *BatchAnalyzer) AnalyzeWith(texts []string, pre Preprocessor) []models.FeedbackRecord {
	records := make([]models.FeedbackRecord, len(texts))
	if len(texts) == 0 {
		return records
	}

	workers := a.workers
	if workers > len(texts) {
		workers = len(texts)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				records[i] = a.analyzeItem(i, texts[i], pre)
			}
		}()
	}

	for i := range texts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	slog.Debug("[BatchAnalyzer] Batch analyzed",
		slog.Int("items", len(texts)),
		slog.Int("workers", workers))
	return records
}

func (a *BatchAnalyzer) analyzeItem(index int, text string, pre Preprocessor) (record models.FeedbackRecord) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("[BatchAnalyzer] Item analysis failed, using neutral default",
				slog.Int("index", index),
				slog.String("error", fmt.Sprint(r)))
			record = neutralRecord(text)
		}
	}()

	input := text
	if pre != nil {
		input = pre(text)
	}

	label, score := a.scorer.Score(input)
	return models.FeedbackRecord{
		FeedbackText:   text,
		SentimentLabel: label,
		SentimentScore: score,
		ProcessedText:  processing.TokenizeForKeywords(input),
		NormalizedText: processing.Normalize(input),
	}
}

func neutralRecord(text string) models.FeedbackRecord {
	return models.FeedbackRecord{
		FeedbackText:   text,
		SentimentLabel: models.LabelNeutral,
	}
}
