package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// DetailOptions selects what the detail parser looks for
type DetailOptions struct {
	Paragraphs       string // candidate description paragraphs, e.g. "p.MsoNormal"
	DescriptionLabel string // text a description paragraph must contain
	Anchors          string // candidate homepage anchors
	HomepageMarker   string // text a homepage anchor must contain
}

// DetailParser extracts the description and homepage of a detail page
type DetailParser struct {
	paragraphs cascadia.Selector
	anchors    cascadia.Selector
	label      string
	marker     string
}

// NewDetailParser creates a DetailParser
func NewDetailParser(opts DetailOptions) (*DetailParser, error) {
	paragraphs, err := Compile(opts.Paragraphs)
	if err != nil {
		return nil, err
	}
	anchors, err := Compile(opts.Anchors)
	if err != nil {
		return nil, err
	}
	return &DetailParser{
		paragraphs: paragraphs,
		anchors:    anchors,
		label:      opts.DescriptionLabel,
		marker:     strings.ToLower(opts.HomepageMarker),
	}, nil
}

// Description returns the trimmed text of the first paragraph containing
// the description label
func (dp *DetailParser) Description(doc *goquery.Document) (string, error) {
	var description string
	doc.FindMatcher(dp.paragraphs).EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.Contains(text, dp.label) {
			description = strings.TrimSpace(text)
			return false
		}
		return true
	})
	if description == "" {
		return "", ErrNotFound
	}
	return description, nil
}

// HomepageURL returns the href of the first anchor whose text contains the
// homepage marker, compared case-insensitively. ErrNotFound is returned when
// no anchor matches or the first match has no href.
func (dp *DetailParser) HomepageURL(doc *goquery.Document) (string, error) {
	var (
		href  string
		found bool
	)
	doc.FindMatcher(dp.anchors).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(normalizeWhitespace(s.Text())), dp.marker) {
			return true
		}
		href, found = s.Attr("href")
		return false
	})
	if !found {
		return "", ErrNotFound
	}
	return href, nil
}
