package scraper

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"directory-scraper/fetcher"
	"directory-scraper/parser"
)

// fakeSite serves canned HTML to fake pages and records what was visited
type fakeSite struct {
	pages    map[string]string
	openErr  map[string]error
	slow     map[string]bool // pages whose ready element never appears
	clickErr error
	visits   []string
	clicks   int
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		pages:   map[string]string{},
		openErr: map[string]error{},
		slow:    map[string]bool{},
	}
}

type fakeBrowser struct {
	site   *fakeSite
	opened []*fakePage
}

func (b *fakeBrowser) NewPage() (fetcher.Page, error) {
	page := &fakePage{site: b.site}
	b.opened = append(b.opened, page)
	return page, nil
}

func (b *fakeBrowser) Close() error {
	return nil
}

type fakePage struct {
	site   *fakeSite
	url    string
	html   string
	closed bool
}

func (p *fakePage) Open(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.site.visits = append(p.site.visits, target)
	if err := p.site.openErr[target]; err != nil {
		return err
	}
	html, ok := p.site.pages[target]
	if !ok {
		return fmt.Errorf("%w: %s: 404", fetcher.ErrNavigation, target)
	}
	p.url, p.html = target, html
	return nil
}

func (p *fakePage) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	if p.site.slow[p.url] {
		return fmt.Errorf("%w: %q after %s", fetcher.ErrTimeout, selector, timeout)
	}
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.site.clicks++
	if p.site.clickErr != nil {
		return p.site.clickErr
	}
	doc, err := parser.NewDocument(p.html)
	if err != nil {
		return err
	}
	href, ok := doc.Find(selector).First().Attr("href")
	if !ok {
		return fmt.Errorf("%w: %q", fetcher.ErrNoElement, selector)
	}
	base, _ := url.Parse(p.url)
	ref, _ := url.Parse(href)
	return p.Open(ctx, base.ResolveReference(ref).String())
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	return p.html, nil
}

func (p *fakePage) URL() string {
	return p.url
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}
