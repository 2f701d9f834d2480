package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// mainContentSelectors are tried in order by the second extraction layer.
var mainContentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	"#content",
	".post-content",
	".article-body",
	".entry-content",
}

var whitespacePattern = regexp.MustCompile(`[ \t]+`)

// HTML extracts readable text through three layers, returning the first
// non-empty result: article extraction, main-content selection with
// script/style/noscript stripped, and a raw strip of the whole document.
func HTML(content []byte) string {
	if text := articleText(content); text != "" {
		return text
	}
	if text := mainContentText(content); text != "" {
		return text
	}
	return rawText(content)
}

func articleText(content []byte) string {
	article, err := readability.FromReader(bytes.NewReader(content), nil)
	if err != nil {
		return ""
	}
	return normalize(article.TextContent)
}

func mainContentText(content []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	for _, sel := range mainContentSelectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if text := normalize(node.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

func rawText(content []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return normalize(doc.Text())
}

// normalize collapses runs of spaces and blank lines left behind by tag
// removal.
func normalize(text string) string {
	text = whitespacePattern.ReplaceAllString(text, " ")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n")
}
