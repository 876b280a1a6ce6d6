package sentiment

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/vader_lexicon.txt
var embeddedLexicon string

//go:embed data/emoji_utf8_lexicon.txt
var embeddedEmoji string

//go:embed data/rules.yaml
var embeddedRules []byte

var ErrInvalidLexicon = errors.New("invalid sentiment lexicon")

// Lexicon is the read-only word valence table plus the auxiliary rule tables
// the analyzer consults. It is built once at startup and never mutated.
type Lexicon struct {
	valence       map[string]float64
	negations     map[string]struct{}
	boosters      map[string]float64
	specialIdioms map[string]float64
	emoji         map[string]string
}

type ruleFile struct {
	Negations []string `yaml:"negations"`
	Boosters  struct {
		Increment []string `yaml:"increment"`
		Decrement []string `yaml:"decrement"`
	} `yaml:"boosters"`
	SpecialIdioms map[string]float64 `yaml:"special_idioms"`
}

// LoadLexicon builds a Lexicon from the embedded VADER word list, emoji
// descriptions and rule tables. A non-empty lexiconPath replaces the word
// list with a file in the same tab-separated format.
func LoadLexicon(lexiconPath string) (*Lexicon, error) {
	var src io.Reader = strings.NewReader(embeddedLexicon)
	source := "embedded"
	if lexiconPath != "" {
		f, err := os.Open(lexiconPath)
		if err != nil {
			return nil, fmt.Errorf("open lexicon %s: %w", lexiconPath, err)
		}
		defer f.Close()
		src = f
		source = lexiconPath
	}

	valence, err := parseLexicon(src)
	if err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", source, err)
	}

	emoji, err := parseEmoji(strings.NewReader(embeddedEmoji))
	if err != nil {
		return nil, fmt.Errorf("parse emoji table: %w", err)
	}

	lex, err := newLexicon(valence, emoji, embeddedRules)
	if err != nil {
		return nil, err
	}

	slog.Info("[Lexicon] Sentiment lexicon loaded",
		slog.String("source", source),
		slog.Int("words", len(lex.valence)),
		slog.Int("boosters", len(lex.boosters)),
		slog.Int("negations", len(lex.negations)),
		slog.Int("emoji", len(lex.emoji)))
	return lex, nil
}

func newLexicon(valence map[string]float64, emoji map[string]string, rules []byte) (*Lexicon, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(rules, &rf); err != nil {
		return nil, fmt.Errorf("parse rule tables: %w", err)
	}
	if len(rf.Negations) == 0 || len(rf.Boosters.Increment) == 0 || len(rf.Boosters.Decrement) == 0 {
		return nil, fmt.Errorf("%w: rule tables are missing negations or boosters", ErrInvalidLexicon)
	}

	lex := &Lexicon{
		valence:       valence,
		negations:     make(map[string]struct{}, len(rf.Negations)),
		boosters:      make(map[string]float64, len(rf.Boosters.Increment)+len(rf.Boosters.Decrement)),
		specialIdioms: rf.SpecialIdioms,
		emoji:         emoji,
	}
	for _, w := range rf.Negations {
		lex.negations[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range rf.Boosters.Increment {
		lex.boosters[strings.ToLower(w)] = boosterIncrement
	}
	for _, w := range rf.Boosters.Decrement {
		lex.boosters[strings.ToLower(w)] = boosterDecrement
	}
	if lex.specialIdioms == nil {
		lex.specialIdioms = map[string]float64{}
	}
	if lex.emoji == nil {
		lex.emoji = map[string]string{}
	}

	return lex, nil
}

// parseLexicon reads "token<TAB>mean[<TAB>...]" lines. Blank lines and lines
// starting with '#' are skipped.
func parseLexicon(r io.Reader) (map[string]float64, error) {
	valence := make(map[string]float64)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d has no valence column", ErrInvalidLexicon, lineNo)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidLexicon, lineNo, err)
		}
		valence[strings.TrimSpace(fields[0])] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(valence) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidLexicon)
	}
	return valence, nil
}

// parseEmoji reads "emoji<TAB>description" lines. Only single-rune keys can
// match, since text is scanned rune by rune.
func parseEmoji(r io.Reader) (map[string]string, error) {
	emoji := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, desc, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		emoji[key] = strings.TrimSpace(desc)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return emoji, nil
}

// Valence returns the base valence of a lowercase token.
func (l *Lexicon) Valence(word string) (float64, bool) {
	v, ok := l.valence[word]
	return v, ok
}

func (l *Lexicon) has(word string) bool {
	_, ok := l.valence[word]
	return ok
}

// IsNegation reports whether word negates the valence that follows it.
// Any word containing "n't" counts.
func (l *Lexicon) IsNegation(word string) bool {
	word = strings.ToLower(word)
	if _, ok := l.negations[word]; ok {
		return true
	}
	return strings.Contains(word, "n't")
}

// Booster returns the intensity scalar for booster/dampener words and
// phrases such as "very" or "kind of".
func (l *Lexicon) Booster(word string) (float64, bool) {
	v, ok := l.boosters[strings.ToLower(word)]
	return v, ok
}

// Size is the number of words with a base valence.
func (l *Lexicon) Size() int {
	return len(l.valence)
}
