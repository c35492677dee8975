package fetcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// RodOptions configures the launched browser
type RodOptions struct {
	Headless          bool
	Bin               string // empty means search the usual install locations
	UserDataDir       string
	NavigationTimeout time.Duration
	NetworkIdle       time.Duration
}

// RodBrowser drives a Chromium instance through the DevTools protocol
type RodBrowser struct {
	browser *rod.Browser
	opts    RodOptions
}

var chromePaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// NewRodBrowser launches a browser and connects to it
func NewRodBrowser(opts RodOptions, log logrus.FieldLogger) (*RodBrowser, error) {
	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Leakless(false).
		Set("disable-dev-shm-usage").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-popup-blocking")

	if opts.UserDataDir != "" {
		if err := os.MkdirAll(opts.UserDataDir, 0755); err != nil {
			log.Warnf("Failed to create browser data directory %s, using a temporary profile: %v", opts.UserDataDir, err)
		} else {
			l = l.UserDataDir(opts.UserDataDir)
		}
	}

	if bin := findChrome(opts.Bin); bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	log.WithField("headless", opts.Headless).Info("Browser launched")
	return &RodBrowser{browser: browser, opts: opts}, nil
}

// findChrome returns the explicit binary or the first installed Chrome.
// An empty result lets the launcher download Chromium.
func findChrome(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// NewPage opens a blank tab
func (rb *RodBrowser) NewPage() (Page, error) {
	page, err := rb.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &rodPage{page: page, opts: rb.opts}, nil
}

// Close closes the browser and all of its pages
func (rb *RodBrowser) Close() error {
	if rb.browser != nil {
		return rb.browser.Close()
	}
	return nil
}

type rodPage struct {
	page *rod.Page
	opts RodOptions
	url  string
}

func (rp *rodPage) bounded(ctx context.Context) (*rod.Page, context.CancelFunc) {
	if rp.opts.NavigationTimeout <= 0 {
		return rp.page.Context(ctx), func() {}
	}
	tctx, cancel := context.WithTimeout(ctx, rp.opts.NavigationTimeout)
	return rp.page.Context(tctx), cancel
}

func (rp *rodPage) Open(ctx context.Context, url string) error {
	page, cancel := rp.bounded(ctx)
	defer cancel()

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %s: waiting for load: %v", ErrNavigation, url, err)
	}
	rp.refreshURL(url)
	return nil
}

func (rp *rodPage) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := rp.page.Context(tctx).Element(selector); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: %q after %s", ErrTimeout, selector, timeout)
		}
		return fmt.Errorf("waiting for %q: %w", selector, err)
	}
	return nil
}

func (rp *rodPage) Click(ctx context.Context, selector string) error {
	page, cancel := rp.bounded(ctx)
	defer cancel()

	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrNoElement, selector, err)
	}

	wait := page.WaitRequestIdle(rp.opts.NetworkIdle, nil, nil, nil)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click %q: %w", selector, err)
	}
	wait()

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for load after clicking %q: %w", selector, err)
	}
	rp.refreshURL(rp.url)
	return nil
}

// refreshURL records the tab's address after redirects
func (rp *rodPage) refreshURL(fallback string) {
	rp.url = fallback
	if info, err := rp.page.Info(); err == nil && info.URL != "" {
		rp.url = info.URL
	}
}

func (rp *rodPage) HTML(ctx context.Context) (string, error) {
	html, err := rp.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (rp *rodPage) URL() string {
	return rp.url
}

func (rp *rodPage) Close() error {
	return rp.page.Close()
}
