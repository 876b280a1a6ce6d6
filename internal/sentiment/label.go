package sentiment

import "github.com/spacesedan/feedbackflow/internal/models"

const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Classify maps a compound score to a label. Both thresholds are inclusive.
func Classify(compound float64) models.SentimentLabel {
	switch {
	case compound >= PositiveThreshold:
		return models.LabelPositive
	case compound <= NegativeThreshold:
		return models.LabelNegative
	default:
		return models.LabelNeutral
	}
}
