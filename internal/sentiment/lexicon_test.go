package sentiment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLexiconEmbedded(t *testing.T) {
	lex, err := LoadLexicon("")
	require.NoError(t, err)

	// a handful of upstream entries repeat; the later line wins
	assert.Equal(t, 7504, lex.Size())

	for word, want := range map[string]float64{
		"love":     3.2,
		"friendly": 2.2,
		"broke":    -1.8,
		":)":       2.0,
		"sux":      -1.5,
		"ok":       1.2,
	} {
		v, ok := lex.Valence(word)
		require.True(t, ok, word)
		assert.InDelta(t, want, v, 1e-9, word)
	}

	// domain nouns and plain adjectives like these carry no valence upstream
	for _, word := range []string{"product", "expensive", "fast", "crashes", "slow"} {
		_, ok := lex.Valence(word)
		assert.False(t, ok, word)
	}
}

func TestLoadLexiconEmbeddedEmoji(t *testing.T) {
	lex, err := LoadLexicon("")
	require.NoError(t, err)

	assert.Greater(t, len(lex.emoji), 3000)
	assert.Equal(t, "pouting face", lex.emoji["😡"])
	assert.Equal(t, "smiling face with smiling eyes", lex.emoji["😊"])
}

func TestParseEmoji(t *testing.T) {
	emoji, err := parseEmoji(strings.NewReader("😀\tgrinning face\r\n\nno tab here\n💔\tbroken heart \n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"😀": "grinning face", "💔": "broken heart"}, emoji)
}

func TestLoadLexiconFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.txt")
	content := "# word\tmean\tstd\traw\n" +
		"stellar\t2.9\t0.5\t[3, 3]\n" +
		"meh\t-0.5\t0.4\t[-1, 0]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	lex, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.Equal(t, 2, lex.Size())

	v, ok := lex.Valence("stellar")
	require.True(t, ok)
	assert.InDelta(t, 2.9, v, 1e-9)

	// rule tables stay embedded
	assert.True(t, lex.IsNegation("not"))
}

func TestLoadLexiconMissingFile(t *testing.T) {
	_, err := LoadLexicon(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestParseLexiconErrors(t *testing.T) {
	tests := map[string]string{
		"no valence column": "good\n",
		"bad number":        "good\tvery\n",
		"empty":             "# only a header\n\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseLexicon(strings.NewReader(in))
			assert.ErrorIs(t, err, ErrInvalidLexicon)
		})
	}
}

func TestNewLexiconRequiresRuleTables(t *testing.T) {
	_, err := newLexicon(map[string]float64{"good": 1.9}, nil, []byte("negations: [not]\n"))
	assert.ErrorIs(t, err, ErrInvalidLexicon)

	_, err = newLexicon(map[string]float64{"good": 1.9}, nil, []byte("negations: [\n"))
	assert.Error(t, err)
}

func TestLexiconRuleLookups(t *testing.T) {
	lex := testLexicon(t)

	assert.True(t, lex.IsNegation("never"))
	assert.True(t, lex.IsNegation("NOT"))
	assert.True(t, lex.IsNegation("shouldn't"))
	assert.False(t, lex.IsNegation("always"))

	v, ok := lex.Booster("Very")
	require.True(t, ok)
	assert.InDelta(t, boosterIncrement, v, 1e-9)

	v, ok = lex.Booster("kind of")
	require.True(t, ok)
	assert.InDelta(t, boosterDecrement, v, 1e-9)

	_, ok = lex.Booster("product")
	assert.False(t, ok)
}
