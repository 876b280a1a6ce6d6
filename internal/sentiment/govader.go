package sentiment

import (
	"github.com/jonreiter/govader"
	"github.com/spacesedan/feedbackflow/internal/models"
	"github.com/spacesedan/feedbackflow/internal/processing"
)

// GoVaderScorer scores with the govader package and its bundled lexicon.
// Labels use the same thresholds as LexiconScorer.
type GoVaderScorer struct {
	compound func(text string) float64
}

func NewGoVaderScorer() *GoVaderScorer {
	analyzer := govader.NewSentimentIntensityAnalyzer()
	return &GoVaderScorer{
		compound: func(text string) float64 {
			return analyzer.PolarityScores(text).Compound
		},
	}
}

func (s *GoVaderScorer) Score(text string) (models.SentimentLabel, float64) {
	if text == "" {
		return models.LabelNeutral, 0
	}
	compound := s.compound(processing.Normalize(text))
	return Classify(compound), compound
}
