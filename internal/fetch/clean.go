// Package fetch provides text cleaning shared by the fetch strategies.
package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// chromeSelector matches the non-content markup stripped before text
// extraction: scripts, styles, and page chrome.
const chromeSelector = "script, style, noscript, template, nav, footer, header, aside, form, iframe, svg"

// StripBoilerplate parses HTML and returns its visible text with scripts,
// styles, and chrome elements removed. Hyperlinks are rewritten to
// Markdown-style "[label](href)" pairs so link discovery survives the
// markup strip.
func StripBoilerplate(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(chromeSelector).Remove()
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		label := strings.TrimSpace(s.Text())
		s.ReplaceWithHtml(fmt.Sprintf("[%s](%s)", label, href))
	})
	sel := doc.Find("body")
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	return sel.Text(), nil
}

// Collapse squeezes all runs of whitespace down to single spaces.
func Collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Truncate bounds text to max runes. The cut point is arbitrary; truncation
// exists to cap oracle token exposure, not for correctness.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
