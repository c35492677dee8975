package parser

import (
	"directory-scraper/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// ListingParser enumerates the links of a listing page
type ListingParser struct {
	links cascadia.Selector
}

// NewListingParser creates a parser for anchors matching selector,
// e.g. "table#table81 a"
func NewListingParser(selector string) (*ListingParser, error) {
	sel, err := Compile(selector)
	if err != nil {
		return nil, err
	}
	return &ListingParser{links: sel}, nil
}

// Parse returns every matching anchor in document order. Anchors with
// empty text or href are kept; callers decide what to skip.
func (lp *ListingParser) Parse(doc *goquery.Document) []models.Link {
	var links []models.Link
	doc.FindMatcher(lp.links).Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		links = append(links, models.Link{
			Text: normalizeWhitespace(s.Text()),
			URL:  href,
		})
	})
	return links
}
