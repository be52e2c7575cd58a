package browser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// ContentSelectors are tried in order; the first that matches wins.
var ContentSelectors = []string{
	"main",
	"article",
	"#content",
	".content",
	"#main",
	".main",
	".post-content",
	".article-content",
}

var whitespace = regexp.MustCompile(`\s+`)

// Extraction is the readable content of a page.
type Extraction struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
	Markdown string `json:"markdown"`
}

// Extract pulls the main content out of an HTML document, falling back to
// the whole body when no content container matches.
func Extract(html string) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}, err
	}
	doc.Find("script, style, noscript, iframe, object, embed").Remove()

	selector := "body"
	sel := doc.Find("body")
	for _, s := range ContentSelectors {
		if found := doc.Find(s).First(); found.Length() > 0 {
			selector, sel = s, found
			break
		}
	}

	text := strings.TrimSpace(whitespace.ReplaceAllString(sel.Text(), " "))

	inner, err := goquery.OuterHtml(sel)
	if err != nil {
		return Extraction{Selector: selector, Text: text}, nil
	}
	markdown, err := toMarkdown(inner)
	if err != nil {
		markdown = text
	}
	return Extraction{Selector: selector, Text: text, Markdown: markdown}, nil
}

func toMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		HorizontalRule:   "---",
		BulletListMarker: "-",
		CodeBlockStyle:   "fenced",
		EmDelimiter:      "*",
	})
	converter.Remove("script", "style", "meta", "link")
	out, err := converter.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Truncate shortens s to at most n bytes on a rune boundary, adding "..."
// when cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
