package analysis

import (
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/spacesedan/feedbackflow/internal/models"
)

type summaryOptions struct {
	excludeUnknown bool
}

type SummaryOption func(*summaryOptions)

// ExcludeUnknownLabels drops labels other than Positive, Neutral and
// Negative from the total. By default they count toward the total but not
// toward any bucket.
func ExcludeUnknownLabels(exclude bool) SummaryOption {
	return func(o *summaryOptions) {
		o.excludeUnknown = exclude
	}
}

// Summarize counts labels, matched case-insensitively.
func Summarize(labels []string, opts ...SummaryOption) models.SentimentSummary {
	counts := make(map[string]int, 3)
	for _, l := range labels {
		counts[l]++
	}
	return SummarizeCounts(counts, opts...)
}

// SummarizeCounts builds a summary from per-label counts, as returned by a
// GROUP BY over stored labels.
func SummarizeCounts(counts map[string]int, opts ...SummaryOption) models.SentimentSummary {
	var o summaryOptions
	for _, opt := range opts {
		opt(&o)
	}

	var s models.SentimentSummary
	for raw, n := range counts {
		if n <= 0 {
			continue
		}
		label, ok := models.ParseLabel(raw)
		if !ok {
			if !o.excludeUnknown {
				s.Total += n
			}
			continue
		}
		s.Total += n
		switch label {
		case models.LabelPositive:
			s.Positive += n
		case models.LabelNeutral:
			s.Neutral += n
		case models.LabelNegative:
			s.Negative += n
		}
	}

	s.PositivePercentage = percentage(s.Positive, s.Total)
	s.NeutralPercentage = percentage(s.Neutral, s.Total)
	s.NegativePercentage = percentage(s.Negative, s.Total)
	return s
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return scalar.RoundEven(float64(count)/float64(total)*100, 2)
}
