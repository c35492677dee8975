package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"directory-scraper/fetcher"
	"directory-scraper/filter"
	"directory-scraper/models"
	"directory-scraper/parser"

	"github.com/sirupsen/logrus"
)

// Options configures a Crawler
type Options struct {
	ListingLinks string // anchors to visit on each listing page
	NextButton   string // next-page control
	Ready        string // element that marks a detail page as loaded
	ReadyTimeout time.Duration
	Detail       parser.DetailOptions
	ExcludeLinks []string
	MaxPages     int // 0 means follow pagination to the end
}

// Result is the outcome of one crawl
type Result struct {
	Records  []models.Record
	Pages    int // listing pages processed
	Links    int // anchors found across all listing pages
	Filtered int // anchors skipped without a visit
	Failed   int // visits that produced no record
}

// Crawler walks a paginated listing and scrapes every linked detail page.
// It owns one listing page and one detail page of the browser and drives
// them from a single goroutine.
type Crawler struct {
	browser fetcher.Browser
	listing *parser.ListingParser
	detail  *parser.DetailParser
	pager   *Paginator
	filter  *filter.LinkFilter
	opts    Options
	log     logrus.FieldLogger
}

// NewCrawler creates a Crawler; the browser stays owned by the caller
func NewCrawler(browser fetcher.Browser, opts Options, log logrus.FieldLogger) (*Crawler, error) {
	listing, err := parser.NewListingParser(opts.ListingLinks)
	if err != nil {
		return nil, fmt.Errorf("listing parser: %w", err)
	}
	detail, err := parser.NewDetailParser(opts.Detail)
	if err != nil {
		return nil, fmt.Errorf("detail parser: %w", err)
	}
	pager, err := NewPaginator(opts.NextButton)
	if err != nil {
		return nil, fmt.Errorf("paginator: %w", err)
	}
	linkFilter, err := filter.NewLinkFilter(opts.ExcludeLinks)
	if err != nil {
		return nil, err
	}
	if opts.Ready == "" {
		opts.Ready = "body"
	}

	return &Crawler{
		browser: browser,
		listing: listing,
		detail:  detail,
		pager:   pager,
		filter:  linkFilter,
		opts:    opts,
		log:     log,
	}, nil
}

// Run crawls from startURL until pagination ends. On error the records
// gathered so far are still returned.
func (c *Crawler) Run(ctx context.Context, startURL string) (*Result, error) {
	result := &Result{}

	listingPage, err := c.browser.NewPage()
	if err != nil {
		return result, err
	}
	defer listingPage.Close()

	detailPage, err := c.browser.NewPage()
	if err != nil {
		return result, err
	}
	defer detailPage.Close()

	c.log.Infof("Attempting to access %s", startURL)
	if err := listingPage.Open(ctx, startURL); err != nil {
		return result, fmt.Errorf("failed to open start page: %w", err)
	}

	for {
		result.Pages++
		c.log.WithField("page", result.Pages).Info("Scraping page...")

		if err := c.scrapePage(ctx, listingPage, detailPage, result); err != nil {
			return result, err
		}

		if c.opts.MaxPages > 0 && result.Pages >= c.opts.MaxPages {
			c.log.Infof("Reached max pages (%d), stopping", c.opts.MaxPages)
			break
		}

		hasNext, err := c.pager.HasNext(ctx, listingPage)
		if err != nil {
			return result, fmt.Errorf("%w: checking next page: %v", ErrPagination, err)
		}
		if !hasNext {
			break
		}
		if err := c.pager.Advance(ctx, listingPage); err != nil {
			return result, fmt.Errorf("%w: advancing from page %d: %v", ErrPagination, result.Pages, err)
		}
		c.log.Info("Moved to next page.")
	}

	c.log.WithFields(logrus.Fields{
		"pages":    result.Pages,
		"links":    result.Links,
		"records":  len(result.Records),
		"filtered": result.Filtered,
		"failed":   result.Failed,
	}).Info("Crawl finished")
	return result, nil
}

// scrapePage visits every link of the current listing page
func (c *Crawler) scrapePage(ctx context.Context, listingPage, detailPage fetcher.Page, result *Result) error {
	html, err := listingPage.HTML(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrListing, err)
	}
	doc, err := parser.NewDocument(html)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrListing, err)
	}

	base := listingPage.URL()
	links := c.listing.Parse(doc)
	result.Links += len(links)

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}

		if reason := c.filter.Check(link); reason != filter.ReasonNone {
			result.Filtered++
			c.log.WithFields(logrus.Fields{"url": link.URL, "reason": reason}).Debug("Skipping link")
			continue
		}

		c.log.Infof("Visiting: %s - %s", link.Text, link.URL)
		record, err := c.visit(ctx, detailPage, base, link)
		if err != nil {
			result.Failed++
			var linkErr *LinkError
			if errors.As(err, &linkErr) {
				c.log.WithFields(logrus.Fields{"url": linkErr.URL, "kind": linkErr.Kind}).Warnf("Skipping link: %v", linkErr.Err)
			} else {
				c.log.WithField("url", link.URL).Warnf("Skipping link: %v", err)
			}
			continue
		}

		result.Records = append(result.Records, record)
		c.log.Infof("Scraped: %s - %s - %s - %s", record.Text, record.URL, record.Description, record.Homepage())
	}
	return nil
}

// visit loads one detail page and builds its record
func (c *Crawler) visit(ctx context.Context, page fetcher.Page, base string, link models.Link) (models.Record, error) {
	target, err := resolveURL(base, link.URL)
	if err != nil {
		return models.Record{}, linkError(KindNavigation, link.URL, err)
	}

	if err := page.Open(ctx, target); err != nil {
		return models.Record{}, linkError(KindNavigation, target, err)
	}
	if err := page.WaitReady(ctx, c.opts.Ready, c.opts.ReadyTimeout); err != nil {
		return models.Record{}, linkError(waitKind(err), target, err)
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return models.Record{}, linkError(KindExtraction, target, err)
	}
	doc, err := parser.NewDocument(html)
	if err != nil {
		return models.Record{}, linkError(KindExtraction, target, err)
	}

	description, err := c.detail.Description(doc)
	if err != nil {
		if !errors.Is(err, parser.ErrNotFound) {
			return models.Record{}, linkError(KindExtraction, target, err)
		}
		description = models.DescriptionNotFound
	}

	var homepage *string
	href, err := c.detail.HomepageURL(doc)
	switch {
	case err == nil:
		homepage = &href
	case errors.Is(err, parser.ErrNotFound):
	default:
		c.log.WithField("url", target).Warnf("Error finding homepage URL: %v", err)
	}

	return models.Record{
		Text:        link.Text,
		URL:         link.URL,
		Description: description,
		HomepageURL: homepage,
	}, nil
}

// resolveURL makes href absolute against the listing page address
func resolveURL(base, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	if ref.IsAbs() {
		return href, nil
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return "", fmt.Errorf("cannot resolve relative href %q against %q", href, base)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
