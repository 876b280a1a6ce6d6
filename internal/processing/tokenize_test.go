package processing

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"i love this product!!!", []string{"i", "love", "this", "product", "!", "!", "!"}},
		{"i don't like it.", []string{"i", "do", "n't", "like", "it", "."}},
		{"it broke. then it died", []string{"it", "broke", ".", "then", "it", "died"}},
		{"slow, rude (and late)", []string{"slow", ",", "rude", "(", "and", "late", ")"}},
		{"we cannot wait", []string{"we", "can", "not", "wait"}},
		{"the app's ui", []string{"the", "app", "'s", "ui"}},
		{"wait... what?", []string{"wait", "...", "what", "?"}},
		{"price: $20", []string{"price", ":", "$", "20"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := WordTokenize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWordTokenizeRejectsInvalidUTF8(t *testing.T) {
	_, err := WordTokenize("bad \xff bytes")
	assert.ErrorIs(t, err, errInvalidText)
}

func TestTokenizeForKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only stopwords", "it is what it is", ""},
		{"positive", "I love this product!!!", "love product"},
		{"negative", "This is terrible and broke immediately", "terrible broke immediately"},
		{"drops short tokens", "ok so my tv is ok", ""},
		{"drops urls and emails", "Email bob@example.com about https://x.io refunds", "email refunds"},
		{"keeps contraction tail", "I don't like waiting.", "n't like waiting"},
		{"drops pure punctuation", "Slow... really slow!!!", "slow really slow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenizeForKeywords(tt.in))
		})
	}
}

func TestSplitTokensFallsBackToWhitespace(t *testing.T) {
	got := splitTokens("awful \xff delivery, never again")
	assert.Equal(t, []string{"awful", "\xff", "delivery,", "never", "again"}, got)
}

func TestTokenizeForKeywordsSanitizesInvalidBytes(t *testing.T) {
	assert.Equal(t, "awful delivery never", TokenizeForKeywords("Awful \xff delivery, never"))
}

func TestTokenizeForKeywordsInvariants(t *testing.T) {
	inputs := []string{
		"The checkout page crashed twice and support never replied!!",
		"Amazing staff :) would recommend to anyone.",
		"Why?? Why does the app log me out every 5 minutes???",
		"\"Quoted\" feedback -- with dashes -- and [brackets]",
	}

	for _, in := range inputs {
		for _, token := range strings.Fields(TokenizeForKeywords(in)) {
			assert.Greater(t, utf8.RuneCountInString(token), 2, "token %q from %q", token, in)
			assert.False(t, isPunctuation(token), "token %q from %q", token, in)
			assert.False(t, IsKeywordStopword(token), "token %q from %q", token, in)
		}
	}
}
