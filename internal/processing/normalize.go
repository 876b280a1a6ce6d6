package processing

import (
	"regexp"
	"strings"
)

var (
	urlPattern   = regexp.MustCompile(`http\S+|www.\S+`)
	emailPattern = regexp.MustCompile(`\S+@\S+`)
)

// Normalize lowercases text, drops URL- and email-shaped substrings and trims
// the result. Punctuation is kept because the sentiment rules read it.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = emailPattern.ReplaceAllString(text, "")

	return strings.TrimSpace(text)
}
