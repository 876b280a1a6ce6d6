package sentiment

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"gonum.org/v1/gonum/floats"
)

const (
	// empirically derived mean intensity change for booster words
	boosterIncrement = 0.293
	boosterDecrement = -0.293

	// empirically derived intensity change for an ALL CAPS word among mixed-case words
	capsIncrement = 0.733

	negationScalar = -0.74

	// approximates the max expected sum so that compound saturates smoothly
	normalizeAlpha = 15.0

	maxExclamations    = 4
	exclamationWeight  = 0.292
	maxQuestionMarks   = 3
	questionMarkWeight = 0.18
	questionMarkCap    = 0.96

	butBeforeWeight = 0.5
	butAfterWeight  = 1.5
)

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Polarity holds the VADER style scores for one text. Compound is the
// normalized sum in [-1, 1]; the other three are proportions of the text.
type Polarity struct {
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// Analyzer applies the lexicon valence rules: negation, boosters, caps
// emphasis, "but" shifts, idioms and punctuation emphasis.
type Analyzer struct {
	lex *Lexicon
}

func NewAnalyzer(lex *Lexicon) *Analyzer {
	return &Analyzer{lex: lex}
}

// PolarityScores scores text as given. It does not normalize.
func (a *Analyzer) PolarityScores(text string) Polarity {
	text = strings.TrimSpace(a.replaceEmoji(text))
	tokens := wordsAndEmoticons(text)
	if len(tokens) == 0 {
		return Polarity{}
	}

	lower := make([]string, len(tokens))
	for i, t := range tokens {
		lower[i] = strings.ToLower(t)
	}
	capDiff := allCapDifferential(tokens)

	sentiments := make([]float64, 0, len(tokens))
	for i, item := range lower {
		if _, ok := a.lex.Booster(item); ok {
			sentiments = append(sentiments, 0)
			continue
		}
		if i < len(lower)-1 && item == "kind" && lower[i+1] == "of" {
			sentiments = append(sentiments, 0)
			continue
		}
		sentiments = append(sentiments, a.sentimentValence(tokens, lower, capDiff, i))
	}

	butCheck(lower, sentiments)
	return scoreValence(sentiments, text)
}

func (a *Analyzer) replaceEmoji(text string) string {
	if len(a.lex.emoji) == 0 {
		return text
	}

	var b strings.Builder
	prevSpace := true
	for _, r := range text {
		if desc, ok := a.lex.emoji[string(r)]; ok {
			if !prevSpace {
				b.WriteByte(' ')
			}
			b.WriteString(desc)
			prevSpace = false
			continue
		}
		b.WriteRune(r)
		prevSpace = r == ' '
	}
	return b.String()
}

func (a *Analyzer) sentimentValence(tokens, lower []string, capDiff bool, i int) float64 {
	item := lower[i]
	base, ok := a.lex.Valence(item)
	if !ok {
		return 0
	}
	valence := base

	// "no" directly before another lexicon word acts as a negator, not a word
	if item == "no" && i != len(lower)-1 && a.lex.has(lower[i+1]) {
		valence = 0
	}
	if (i > 0 && lower[i-1] == "no") ||
		(i > 1 && lower[i-2] == "no") ||
		(i > 2 && lower[i-3] == "no" && (lower[i-1] == "or" || lower[i-1] == "nor")) {
		valence = base * negationScalar
	}

	if isUpper(tokens[i]) && capDiff {
		if valence > 0 {
			valence += capsIncrement
		} else {
			valence -= capsIncrement
		}
	}

	for start := 0; start < 3; start++ {
		if i <= start || a.lex.has(lower[i-(start+1)]) {
			continue
		}
		s := a.scalarIncDec(tokens[i-(start+1)], valence, capDiff)
		if start == 1 && s != 0 {
			s *= 0.95
		}
		if start == 2 && s != 0 {
			s *= 0.9
		}
		valence += s
		valence = a.negationCheck(valence, lower, start, i)
		if start == 2 {
			valence = a.specialIdiomsCheck(valence, lower, i)
		}
	}

	return a.leastCheck(valence, lower, i)
}

func (a *Analyzer) scalarIncDec(word string, valence float64, capDiff bool) float64 {
	scalar, ok := a.lex.Booster(word)
	if !ok {
		return 0
	}
	if valence < 0 {
		scalar *= -1
	}
	if isUpper(word) && capDiff {
		if valence > 0 {
			scalar += capsIncrement
		} else {
			scalar -= capsIncrement
		}
	}
	return scalar
}

func (a *Analyzer) negationCheck(valence float64, lower []string, start, i int) float64 {
	switch start {
	case 0:
		if a.lex.IsNegation(lower[i-1]) {
			return valence * negationScalar
		}
	case 1:
		switch {
		case lower[i-2] == "never" && (lower[i-1] == "so" || lower[i-1] == "this"):
			return valence * 1.25
		case lower[i-2] == "without" && lower[i-1] == "doubt":
			return valence
		case a.lex.IsNegation(lower[i-2]):
			return valence * negationScalar
		}
	case 2:
		// a "so"/"this" right before the word boosts even without a
		// leading "never"
		switch {
		case (lower[i-3] == "never" && (lower[i-2] == "so" || lower[i-2] == "this")) ||
			lower[i-1] == "so" || lower[i-1] == "this":
			return valence * 1.25
		case lower[i-3] == "without" && (lower[i-2] == "doubt" || lower[i-1] == "doubt"):
			return valence
		case a.lex.IsNegation(lower[i-3]):
			return valence * negationScalar
		}
	}
	return valence
}

// specialIdiomsCheck is only reached with i >= 3.
func (a *Analyzer) specialIdiomsCheck(valence float64, lower []string, i int) float64 {
	oneZero := lower[i-1] + " " + lower[i]
	twoOneZero := lower[i-2] + " " + lower[i-1] + " " + lower[i]
	twoOne := lower[i-2] + " " + lower[i-1]
	threeTwoOne := lower[i-3] + " " + lower[i-2] + " " + lower[i-1]
	threeTwo := lower[i-3] + " " + lower[i-2]

	for _, seq := range []string{oneZero, twoOneZero, twoOne, threeTwoOne, threeTwo} {
		if v, ok := a.lex.specialIdioms[seq]; ok {
			valence = v
			break
		}
	}

	if len(lower)-1 > i {
		if v, ok := a.lex.specialIdioms[lower[i]+" "+lower[i+1]]; ok {
			valence = v
		}
	}
	if len(lower)-1 > i+1 {
		if v, ok := a.lex.specialIdioms[lower[i]+" "+lower[i+1]+" "+lower[i+2]]; ok {
			valence = v
		}
	}

	// booster/dampener n-grams such as "sort of" or "kind of"
	for _, ngram := range []string{threeTwoOne, threeTwo, twoOne} {
		if v, ok := a.lex.Booster(ngram); ok {
			valence += v
		}
	}
	return valence
}

func (a *Analyzer) leastCheck(valence float64, lower []string, i int) float64 {
	if i > 1 && !a.lex.has(lower[i-1]) && lower[i-1] == "least" {
		if lower[i-2] != "at" && lower[i-2] != "very" {
			valence *= negationScalar
		}
	} else if i > 0 && !a.lex.has(lower[i-1]) && lower[i-1] == "least" {
		valence *= negationScalar
	}
	return valence
}

// butCheck weights sentiment after the first "but" up and before it down.
func butCheck(lower []string, sentiments []float64) {
	bi := -1
	for i, w := range lower {
		if w == "but" {
			bi = i
			break
		}
	}
	if bi < 0 {
		return
	}
	for si := range sentiments {
		switch {
		case si < bi:
			sentiments[si] *= butBeforeWeight
		case si > bi:
			sentiments[si] *= butAfterWeight
		}
	}
}

func scoreValence(sentiments []float64, text string) Polarity {
	sum := floats.Sum(sentiments)
	punct := punctuationEmphasis(text)
	if sum > 0 {
		sum += punct
	} else if sum < 0 {
		sum -= punct
	}

	posSum, negSum, neuCount := siftSentimentScores(sentiments)
	if posSum > math.Abs(negSum) {
		posSum += punct
	} else if posSum < math.Abs(negSum) {
		negSum -= punct
	}
	total := posSum + math.Abs(negSum) + neuCount

	return Polarity{
		Negative: math.Abs(negSum / total),
		Neutral:  math.Abs(neuCount / total),
		Positive: math.Abs(posSum / total),
		Compound: Normalize(sum),
	}
}

// siftSentimentScores adds one to each non-zero magnitude so neutral words,
// which count as one, stay comparable.
func siftSentimentScores(sentiments []float64) (posSum, negSum, neuCount float64) {
	for _, s := range sentiments {
		switch {
		case s > 0:
			posSum += s + 1
		case s < 0:
			negSum += s - 1
		default:
			neuCount++
		}
	}
	return posSum, negSum, neuCount
}

func punctuationEmphasis(text string) float64 {
	ep := strings.Count(text, "!")
	if ep > maxExclamations {
		ep = maxExclamations
	}
	emphasis := float64(ep) * exclamationWeight

	if qm := strings.Count(text, "?"); qm > 1 {
		if qm <= maxQuestionMarks {
			emphasis += float64(qm) * questionMarkWeight
		} else {
			emphasis += questionMarkCap
		}
	}
	return emphasis
}

// Normalize maps an unbounded valence sum into [-1, 1] with
// x / sqrt(x*x + alpha).
func Normalize(score float64) float64 {
	n := score / math.Sqrt(score*score+normalizeAlpha)
	switch {
	case n < -1:
		return -1
	case n > 1:
		return 1
	default:
		return n
	}
}

// wordsAndEmoticons splits on whitespace and strips leading and trailing
// punctuation, unless that would leave two characters or fewer, which keeps
// emoticons like ":)" intact.
func wordsAndEmoticons(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		stripped := strings.Trim(f, asciiPunctuation)
		if utf8.RuneCountInString(stripped) <= 2 {
			out = append(out, f)
			continue
		}
		out = append(out, stripped)
	}
	return out
}

// allCapDifferential is true when some but not all words are ALL CAPS.
func allCapDifferential(words []string) bool {
	caps := 0
	for _, w := range words {
		if isUpper(w) {
			caps++
		}
	}
	return caps > 0 && caps < len(words)
}

// isUpper matches str.isupper: at least one cased rune and no lowercase ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}
