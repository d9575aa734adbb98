package source

import (
	"bytes"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// HTMLExtractor pulls the main article out of an HTML page and converts it
// to markdown so the analyzer sees headings and lists.
type HTMLExtractor struct {
	converter *md.Converter
}

// NewHTMLExtractor returns an HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &HTMLExtractor{converter: converter}
}

// Extensions implements TextExtractor.
func (*HTMLExtractor) Extensions() []string {
	return []string{".html", ".htm"}
}

// Extract implements TextExtractor.
func (e *HTMLExtractor) Extract(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &ExtractionError{Name: name, Reason: "file is empty"}
	}

	title := extractTitle(data)
	content := mainContent(data)

	markdown, err := e.converter.ConvertString(content)
	if err != nil {
		return "", &ExtractionError{Name: name, Reason: err.Error()}
	}
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return "", &ExtractionError{Name: name, Reason: "no text content"}
	}

	if title != "" && !strings.HasPrefix(markdown, "# ") {
		markdown = "# " + title + "\n\n" + markdown
	}
	return markdown + "\n", nil
}

// readabilityBase anchors relative links during extraction; local files have
// no real URL.
var readabilityBase = &url.URL{Scheme: "file", Path: "/"}

// mainContent runs readability extraction and falls back to the raw HTML
// when the page has no identifiable article.
func mainContent(data []byte) string {
	article, err := readability.FromReader(bytes.NewReader(data), readabilityBase)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return string(data)
	}
	return article.Content
}

// extractTitle reads the <title> element.
func extractTitle(data []byte) string {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil && title == ""; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
