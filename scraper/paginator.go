package scraper

import (
	"context"

	"directory-scraper/fetcher"
	"directory-scraper/parser"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Paginator detects and activates the listing's next-page control
type Paginator struct {
	selector string
	next     cascadia.Selector
}

// NewPaginator creates a Paginator for the control matching selector,
// e.g. "a#nextButton"
func NewPaginator(selector string) (*Paginator, error) {
	next, err := parser.Compile(selector)
	if err != nil {
		return nil, err
	}
	return &Paginator{selector: selector, next: next}, nil
}

// HasNext reports whether the page shows an enabled next control
func (p *Paginator) HasNext(ctx context.Context, page fetcher.Page) (bool, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return false, err
	}
	doc, err := parser.NewDocument(html)
	if err != nil {
		return false, err
	}
	return p.hasNext(doc), nil
}

func (p *Paginator) hasNext(doc *goquery.Document) bool {
	control := doc.FindMatcher(p.next).First()
	if control.Length() == 0 {
		return false
	}
	disabled, _ := control.Attr("aria-disabled")
	return disabled != "true"
}

// Advance clicks the next control and waits for the network to go idle.
// Callers must check HasNext first.
func (p *Paginator) Advance(ctx context.Context, page fetcher.Page) error {
	return page.Click(ctx, p.selector)
}
