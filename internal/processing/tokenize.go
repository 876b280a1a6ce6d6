package processing

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var errInvalidText = errors.New("text is not valid utf-8")

type rewrite struct {
	pattern *regexp.Regexp
	repl    string
}

func rw(pattern, repl string) rewrite {
	return rewrite{pattern: regexp.MustCompile(pattern), repl: repl}
}

// Penn Treebank style rewrite passes. Each pass pads the pieces it splits off
// with spaces so the final split is a plain whitespace split.
var (
	startingQuotes = []rewrite{
		rw(`([«“‘„]|` + "`" + `+)`, " $1 "),
		rw(`^"`, "``"),
		rw("(``)", " $1 "),
		rw(`([ (\[{<])("|'{2})`, "$1 `` "),
	}

	punctuation = []rewrite{
		rw(`([^.])(\.)([\])}>"']*)\s*$`, "$1 $2 $3 "),
		rw(`([:,])([^\d])`, " $1 $2"),
		rw(`([:,])$`, " $1 "),
		rw(`\.{2,}`, " $0 "),
		rw(`[;@#$%&]`, " $0 "),
		rw(`[?!]`, " $0 "),
		rw(`([^'])' `, "$1 ' "),
		rw(`[*]`, " $0 "),
		rw(`[\][(){}<>]`, " $0 "),
		rw(`--`, " -- "),
	}

	endingQuotes = []rewrite{
		rw(`([»”’])`, " $1 "),
		rw(`''`, " '' "),
		rw(`"`, " '' "),
		rw(`([^' ])('[sSmMdD]|') `, "$1 $2 "),
		rw(`([^' ])('ll|'LL|'re|'RE|'ve|'VE|n't|N'T) `, "$1 $2 "),
	}

	contractions = []rewrite{
		rw(`(?i)\b(can)(not)\b`, " $1 $2 "),
		rw(`(?i)\b(d)('ye)\b`, " $1 $2 "),
		rw(`(?i)\b(gim)(me)\b`, " $1 $2 "),
		rw(`(?i)\b(gon)(na)\b`, " $1 $2 "),
		rw(`(?i)\b(got)(ta)\b`, " $1 $2 "),
		rw(`(?i)\b(lem)(me)\b`, " $1 $2 "),
		rw(`(?i)\b(more)('n)\b`, " $1 $2 "),
		rw(`(?i)\b(wan)(na)\s`, " $1 $2 "),
		rw(`(?i) ('t)(is)\b`, " $1 $2 "),
		rw(`(?i) ('t)(was)\b`, " $1 $2 "),
	}

	sentenceBoundary = regexp.MustCompile(`[.!?]+["')\]]*\s+`)
)

// WordTokenize splits text into word and punctuation tokens. Sentences are
// tokenized separately so that every sentence-final period is split off.
func WordTokenize(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, errInvalidText
	}

	var tokens []string
	for _, sentence := range splitSentences(text) {
		tokens = append(tokens, tokenizeSentence(sentence)...)
	}
	return tokens, nil
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func tokenizeSentence(sentence string) []string {
	s := " " + sentence + " "
	for _, group := range [][]rewrite{startingQuotes, punctuation, endingQuotes, contractions} {
		for _, r := range group {
			s = r.pattern.ReplaceAllString(s, r.repl)
		}
	}
	return strings.Fields(s)
}

// TokenizeForKeywords normalizes raw text and returns the keyword-eligible
// tokens joined by single spaces: no pure punctuation, no stopwords and
// nothing shorter than three characters.
func TokenizeForKeywords(raw string) string {
	text := Normalize(raw)
	if text == "" {
		return ""
	}

	tokens := splitTokens(text)
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if isPunctuation(token) {
			continue
		}
		if IsKeywordStopword(strings.ToLower(token)) {
			continue
		}
		if utf8.RuneCountInString(token) <= 2 {
			continue
		}
		kept = append(kept, token)
	}

	return strings.Join(kept, " ")
}

// splitTokens never fails: text the word tokenizer rejects is split on
// whitespace instead.
func splitTokens(text string) []string {
	tokens, err := WordTokenize(text)
	if err != nil {
		return strings.Fields(text)
	}
	return tokens
}

func isPunctuation(token string) bool {
	for _, r := range token {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}
