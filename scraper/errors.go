package scraper

import (
	"errors"
	"fmt"

	"directory-scraper/fetcher"
)

var (
	// ErrPagination aborts a crawl when the next-page control could not be
	// inspected or activated
	ErrPagination = errors.New("pagination failed")
	// ErrListing aborts a crawl when a listing page could not be read
	ErrListing = errors.New("listing page unreadable")
)

// Kind classifies a failed link visit
type Kind string

const (
	KindNavigation Kind = "navigation"
	KindTimeout    Kind = "timeout"
	KindExtraction Kind = "extraction"
)

// LinkError reports why one listing link produced no record. Link errors
// never abort a crawl.
type LinkError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("%s error for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

func linkError(kind Kind, url string, err error) *LinkError {
	return &LinkError{Kind: kind, URL: url, Err: err}
}

// waitKind separates deadline expiry from other failures while waiting
// for a detail page
func waitKind(err error) Kind {
	if errors.Is(err, fetcher.ErrTimeout) {
		return KindTimeout
	}
	return KindExtraction
}
