package analysis

import (
	"regexp"
	"sort"
	"strings"

	"github.com/spacesedan/feedbackflow/internal/models"
)

// AggregatorStopwords are short high-frequency words removed when ranking
// keywords. Distinct from processing.KeywordStopwords.
var AggregatorStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {},
	"all": {}, "can": {}, "her": {}, "was": {}, "one": {}, "our": {}, "out": {},
	"day": {}, "get": {}, "has": {}, "him": {}, "his": {}, "how": {}, "its": {},
	"may": {}, "new": {}, "now": {}, "old": {}, "see": {}, "two": {}, "way": {},
	"who": {}, "boy": {}, "did": {}, "let": {}, "put": {}, "say": {}, "she": {},
	"too": {}, "use": {},
}

var (
	wordRun      = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	keywordShape = regexp.MustCompile(`^[a-z]{3,}$`)
)

// TopKeywords ranks the words of the given processed texts by frequency.
// A word is a run of word characters made only of three or more lowercase
// ASCII letters. Equal counts keep first-occurrence order.
func TopKeywords(processedTexts []string, limit int) []models.KeywordEntry {
	if limit <= 0 {
		return []models.KeywordEntry{}
	}

	all := strings.ToLower(strings.Join(processedTexts, " "))

	counts := make(map[string]int)
	var order []string
	for _, w := range wordRun.FindAllString(all, -1) {
		if !keywordShape.MatchString(w) {
			continue
		}
		if _, stop := AggregatorStopwords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	entries := make([]models.KeywordEntry, 0, len(order))
	for _, w := range order {
		entries = append(entries, models.KeywordEntry{Word: w, Count: counts[w]})
	}
	return entries
}
