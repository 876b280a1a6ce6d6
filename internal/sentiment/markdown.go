package sentiment

import (
	"bytes"
	"strings"

	"github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"
)

// MarkdownToText renders markdown feedback and keeps only its visible text.
// Link targets and images are dropped, link text is kept.
func MarkdownToText(input string) string {
	rendered := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())

	var b strings.Builder
	z := html.NewTokenizer(bytes.NewReader(rendered))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.WriteString(z.Token().Data)
			b.WriteByte(' ')
		}
	}
}
