package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// ErrNotFound is returned when a page lacks the element being extracted
var ErrNotFound = errors.New("not found")

// NewDocument parses page HTML for the extractors
func NewDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Compile compiles a CSS selector, reporting syntax errors instead of
// silently matching nothing
func Compile(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return sel, nil
}

// normalizeWhitespace collapses runs of whitespace (NBSP included) into
// single spaces and trims the ends, approximating rendered text
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
