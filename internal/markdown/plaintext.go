package markdown

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
)

// PlainText renders the markdown to HTML and returns its visible text, so that keyword
// and number scans are not split by emphasis markers or link syntax.
// If rendering fails the raw document is returned.
func PlainText(doc string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(doc), &buf); err != nil {
		return doc
	}

	html, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return doc
	}

	// Separate cells and list items that would otherwise run together.
	html.Find("td, th, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return strings.TrimSpace(html.Text())
}
