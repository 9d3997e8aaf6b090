package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ContentExtractor pulls the readable text of a linked page so the classifier
// can match more than the list-level title.
type ContentExtractor struct{}

// NewContentExtractor creates a new readability-based content extractor.
func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

type Content struct {
	Title string
	Text  string
}

// Run extracts the main text of an HTML page. pageURL is used to resolve
// relative links and may be nil.
func (e *ContentExtractor) Run(data []byte, pageURL *url.URL) (*Content, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	text := collapseText(article.TextContent)
	if article.Node != nil {
		text = selectionText(goquery.NewDocumentFromNode(article.Node).Selection)
	}
	text = truncateRunes(text, maxBodyRunes)
	if text == "" {
		return nil, fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"content_length", len(text))

	return &Content{
		Title: collapseText(article.Title),
		Text:  text,
	}, nil
}
