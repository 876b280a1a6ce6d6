package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/feedbackflow/internal/models"
	"github.com/spacesedan/feedbackflow/internal/sentiment"
)

func newTestBatchAnalyzer(t *testing.T, opts ...Option) *BatchAnalyzer {
	t.Helper()
	lex, err := sentiment.LoadLexicon("")
	require.NoError(t, err)
	return NewBatchAnalyzer(sentiment.NewLexiconScorer(lex), opts...)
}

func TestAnalyzeScenario(t *testing.T) {
	a := newTestBatchAnalyzer(t)

	records := a.Analyze([]string{"I love this product!!!", "This is terrible and broke immediately"})
	require.Len(t, records, 2)

	assert.Equal(t, "I love this product!!!", records[0].FeedbackText)
	assert.Equal(t, models.LabelPositive, records[0].SentimentLabel)
	assert.Greater(t, records[0].SentimentScore, 0.05)
	assert.Equal(t, "love product", records[0].ProcessedText)

	assert.Equal(t, models.LabelNegative, records[1].SentimentLabel)
	assert.Less(t, records[1].SentimentScore, -0.05)
	assert.Equal(t, "terrible broke immediately", records[1].ProcessedText)
}

func TestAnalyzeKeepsEmptyItems(t *testing.T) {
	a := newTestBatchAnalyzer(t)

	records := a.Analyze([]string{"", "   ", "https://example.com"})
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, models.LabelNeutral, r.SentimentLabel)
		assert.Equal(t, 0.0, r.SentimentScore)
		assert.Empty(t, r.ProcessedText)
	}
}

func TestAnalyzePreservesOrder(t *testing.T) {
	a := newTestBatchAnalyzer(t, WithWorkers(8))

	texts := make([]string, 200)
	for i := range texts {
		if i%2 == 0 {
			texts[i] = fmt.Sprintf("item %d is great", i)
		} else {
			texts[i] = fmt.Sprintf("item %d is awful", i)
		}
	}

	records := a.Analyze(texts)
	require.Len(t, records, len(texts))
	for i, r := range records {
		assert.Equal(t, texts[i], r.FeedbackText)
		if i%2 == 0 {
			assert.Equal(t, models.LabelPositive, r.SentimentLabel, texts[i])
		} else {
			assert.Equal(t, models.LabelNegative, r.SentimentLabel, texts[i])
		}
	}
}

type panickyScorer struct {
	sentiment.Scorer
}

func (p panickyScorer) Score(text string) (models.SentimentLabel, float64) {
	if strings.Contains(text, "boom") {
		panic("scorer exploded")
	}
	return p.Scorer.Score(text)
}

func TestAnalyzeRecoversPerItem(t *testing.T) {
	lex, err := sentiment.LoadLexicon("")
	require.NoError(t, err)
	a := NewBatchAnalyzer(panickyScorer{sentiment.NewLexiconScorer(lex)}, WithWorkers(2))

	records := a.Analyze([]string{"great app", "boom goes the app", "awful app"})
	require.Len(t, records, 3)

	assert.Equal(t, models.LabelPositive, records[0].SentimentLabel)
	assert.Equal(t, models.FeedbackRecord{
		FeedbackText:   "boom goes the app",
		SentimentLabel: models.LabelNeutral,
	}, records[1])
	assert.Equal(t, models.LabelNegative, records[2].SentimentLabel)
}

func TestAnalyzeWithPreprocessor(t *testing.T) {
	a := newTestBatchAnalyzer(t)

	records := a.AnalyzeWith([]string{"**Great** support, see [docs](https://docs.example.com)"}, sentiment.MarkdownToText)
	require.Len(t, records, 1)

	assert.Equal(t, "**Great** support, see [docs](https://docs.example.com)", records[0].FeedbackText)
	assert.Equal(t, models.LabelPositive, records[0].SentimentLabel)
	assert.Equal(t, "great support see docs", records[0].ProcessedText)
}

func TestAnalyzeEmptyBatch(t *testing.T) {
	a := newTestBatchAnalyzer(t)
	assert.Empty(t, a.Analyze(nil))
}

func TestWithWorkersIgnoresNonPositive(t *testing.T) {
	a := newTestBatchAnalyzer(t, WithWorkers(0))
	assert.Positive(t, a.workers)
}
