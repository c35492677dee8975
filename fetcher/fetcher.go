package fetcher

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when a wait did not complete before its deadline
	ErrTimeout = errors.New("timed out waiting for page")
	// ErrNavigation is returned when a page could not be loaded
	ErrNavigation = errors.New("navigation failed")
	// ErrNoElement is returned when a control to act on is missing
	ErrNoElement = errors.New("element not found")
)

// Page is a single browser tab. Calls on a page must not overlap.
type Page interface {
	// Open navigates to url and returns once the document has loaded
	Open(ctx context.Context, url string) error
	// WaitReady blocks until selector is present or timeout elapses
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error
	// Click activates the first element matching selector and waits for
	// the network to settle
	Click(ctx context.Context, selector string) error
	// HTML returns the current DOM serialized as HTML
	HTML(ctx context.Context) (string, error)
	// URL returns the address of the document currently loaded
	URL() string
	Close() error
}

// Browser owns the pages of one crawl session
type Browser interface {
	NewPage() (Page, error)
	Close() error
}
