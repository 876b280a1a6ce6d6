package analysis

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/feedbackflow/internal/models"
)

func TestTopKeywords(t *testing.T) {
	got := TopKeywords([]string{"bad service bad wait", "bad wait long"}, 2)
	assert.Equal(t, []models.KeywordEntry{
		{Word: "bad", Count: 3},
		{Word: "wait", Count: 2},
	}, got)
}

func TestTopKeywordsTiesKeepFirstOccurrence(t *testing.T) {
	got := TopKeywords([]string{"slow refund", "refund slow crash"}, 10)
	assert.Equal(t, []models.KeywordEntry{
		{Word: "slow", Count: 2},
		{Word: "refund", Count: 2},
		{Word: "crash", Count: 1},
	}, got)
}

func TestTopKeywordsDropsStopwordsRegardlessOfFrequency(t *testing.T) {
	texts := []string{
		"the the the the for for for crash",
		"the and was too crash",
	}
	got := TopKeywords(texts, 5)
	assert.Equal(t, []models.KeywordEntry{{Word: "crash", Count: 2}}, got)
}

func TestTopKeywordsShape(t *testing.T) {
	got := TopKeywords([]string{"UI is ok, App CRASHED; v2 crash42 café snake_case"}, 10)
	assert.Equal(t, []models.KeywordEntry{
		{Word: "app", Count: 1},
		{Word: "crashed", Count: 1},
	}, got)
}

func TestTopKeywordsEdgeCases(t *testing.T) {
	assert.Empty(t, TopKeywords([]string{"crash crash"}, 0))
	assert.Empty(t, TopKeywords([]string{"crash crash"}, -3))
	assert.Empty(t, TopKeywords(nil, 10))
	assert.Empty(t, TopKeywords([]string{"", "ok", "!!"}, 10))

	got := TopKeywords([]string{"alpha beta gamma delta"}, 2)
	assert.Len(t, got, 2)
}

func TestProcessedTextRoundTrip(t *testing.T) {
	a := newTestBatchAnalyzer(t)

	records := a.Analyze([]string{
		"The app crashed 3 times!! Worst. Update. Ever.",
		"Support didn't reply; I'm so disappointed :(",
		"Delivery was late, the box was crushed & wet...",
	})

	processed := make([]string, 0, len(records))
	for _, r := range records {
		for _, tok := range strings.Fields(r.ProcessedText) {
			require.Greater(t, utf8.RuneCountInString(tok), 2, tok)
		}
		processed = append(processed, r.ProcessedText)
	}

	for _, kw := range TopKeywords(processed, 50) {
		assert.GreaterOrEqual(t, len(kw.Word), 3)
		assert.Equal(t, strings.ToLower(kw.Word), kw.Word)
		assert.NotContains(t, kw.Word, ".")
		assert.Contains(t, strings.Join(processed, " "), kw.Word)
	}
}
