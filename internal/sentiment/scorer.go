package sentiment

import (
	"fmt"

	"github.com/spacesedan/feedbackflow/config"
	"github.com/spacesedan/feedbackflow/internal/models"
	"github.com/spacesedan/feedbackflow/internal/processing"
)

// Scorer turns one feedback text into a label and compound score.
// Implementations are safe for concurrent use.
type Scorer interface {
	Score(text string) (models.SentimentLabel, float64)
}

type LexiconScorer struct {
	analyzer *Analyzer
}

func NewLexiconScorer(lex *Lexicon) *LexiconScorer {
	return &LexiconScorer{analyzer: NewAnalyzer(lex)}
}

// Score normalizes text and returns its unrounded compound score. Empty
// text is Neutral with score 0.
func (s *LexiconScorer) Score(text string) (models.SentimentLabel, float64) {
	if text == "" {
		return models.LabelNeutral, 0
	}
	compound := s.analyzer.PolarityScores(processing.Normalize(text)).Compound
	return Classify(compound), compound
}

// NewScorer picks the scoring engine by name.
func NewScorer(engine string, lex *Lexicon) (Scorer, error) {
	switch engine {
	case "", config.EngineLexicon:
		if lex == nil {
			return nil, fmt.Errorf("engine %q needs a lexicon", config.EngineLexicon)
		}
		return NewLexiconScorer(lex), nil
	case config.EngineGoVader:
		return NewGoVaderScorer(), nil
	default:
		return nil, fmt.Errorf("unknown sentiment engine %q", engine)
	}
}
