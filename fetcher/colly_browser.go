package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// DefaultUserAgent is sent by the static backend when none is configured
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// CollyOptions configures the static backend
type CollyOptions struct {
	UserAgent      string
	RequestTimeout time.Duration
}

// CollyBrowser fetches pages over plain HTTP without executing scripts.
// Clicking a control follows its href, which covers sites whose
// pagination is made of ordinary links.
type CollyBrowser struct {
	opts CollyOptions
}

// NewCollyBrowser creates a static browser
func NewCollyBrowser(opts CollyOptions) *CollyBrowser {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &CollyBrowser{opts: opts}
}

// NewPage returns a page backed by its own collector
func (cb *CollyBrowser) NewPage() (Page, error) {
	c := colly.NewCollector(
		colly.UserAgent(cb.opts.UserAgent),
		colly.AllowURLRevisit(),
	)
	if cb.opts.RequestTimeout > 0 {
		c.SetRequestTimeout(cb.opts.RequestTimeout)
	}

	page := &collyPage{collector: c}
	c.OnResponse(func(r *colly.Response) {
		page.body = r.Body
		page.url = r.Request.URL.String()
	})
	return page, nil
}

// Close is a no-op; collectors hold no long-lived resources
func (cb *CollyBrowser) Close() error {
	return nil
}

type collyPage struct {
	collector *colly.Collector
	body      []byte
	url       string
}

func (cp *collyPage) Open(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp.body = nil
	if err := cp.collector.Visit(target); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, target, err)
	}
	if cp.body == nil {
		return fmt.Errorf("%w: %s: empty response", ErrNavigation, target)
	}
	return nil
}

func (cp *collyPage) document() (*goquery.Document, error) {
	if cp.body == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(cp.body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// WaitReady checks the selector once; a static document never changes
func (cp *collyPage) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := cp.document()
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %q is not in the document", ErrTimeout, selector)
	}
	return nil
}

func (cp *collyPage) Click(ctx context.Context, selector string) error {
	doc, err := cp.document()
	if err != nil {
		return err
	}
	href, ok := doc.Find(selector).First().Attr("href")
	if !ok || href == "" {
		return fmt.Errorf("%w: %q has no href to follow", ErrNoElement, selector)
	}

	base, err := url.Parse(cp.url)
	if err != nil {
		return fmt.Errorf("invalid page URL %q: %w", cp.url, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("%w: invalid href %q: %v", ErrNavigation, href, err)
	}
	return cp.Open(ctx, base.ResolveReference(ref).String())
}

func (cp *collyPage) HTML(ctx context.Context) (string, error) {
	if cp.body == nil {
		return "", fmt.Errorf("no document loaded")
	}
	return string(cp.body), nil
}

func (cp *collyPage) URL() string {
	return cp.url
}

func (cp *collyPage) Close() error {
	cp.body = nil
	return nil
}
