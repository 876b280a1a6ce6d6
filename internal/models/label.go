package models

import "strings"

// SentimentLabel is the categorical sentiment of a feedback text.
type SentimentLabel string

const (
	LabelPositive SentimentLabel = "Positive"
	LabelNeutral  SentimentLabel = "Neutral"
	LabelNegative SentimentLabel = "Negative"
)

// ParseLabel matches a stored label case-insensitively. Unknown labels
// return false.
func ParseLabel(s string) (SentimentLabel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return LabelPositive, true
	case "neutral":
		return LabelNeutral, true
	case "negative":
		return LabelNegative, true
	default:
		return "", false
	}
}

func (l SentimentLabel) String() string {
	return string(l)
}
