package scraper

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"arcognition/models"
)

// stealthJS hides the obvious automation fingerprints so storefront bot walls
// serve the real page instead of a challenge.
const stealthJS = `
	Object.defineProperty(navigator, 'webdriver', {
		get: () => undefined,
	});
	Object.defineProperty(navigator, 'languages', {
		get: () => ['en-US', 'en'],
	});
	Object.defineProperty(navigator, 'plugins', {
		get: () => [1, 2, 3, 4, 5],
	});
	window.chrome = { runtime: {} };
`

// BrowserFetcher renders candidate pages in headless Chromium before handing
// the DOM to the extractor. Needed for storefronts that assemble price markup
// client-side; the plain HTTP fetcher is the default.
type BrowserFetcher struct {
	browser *rod.Browser
	timeout time.Duration
}

// NewBrowserFetcher launches the browser. Uses system Chromium when present
// (Docker), auto-download otherwise. timeout bounds each Fetch; a page that
// never settles must not hold a scrape slot forever.
func NewBrowserFetcher(timeout time.Duration) (*BrowserFetcher, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false)

	if _, err := os.Stat("/usr/bin/chromium-browser"); err == nil {
		l = l.Bin("/usr/bin/chromium-browser")
		log.Printf("Using system Chromium")
	}

	var browser *rod.Browser
	err := rod.Try(func() {
		url := l.MustLaunch()
		browser = rod.New().ControlURL(url).MustConnect()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %v", err)
	}
	return &BrowserFetcher{browser: browser, timeout: timeout}, nil
}

// Fetch renders the page and returns its serialized DOM. Cancellation of ctx
// aborts the navigation, and the fetcher's own timeout applies even when the
// caller's context carries no deadline.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var html string
	err := rod.Try(func() {
		page := f.browser.Context(ctx).MustPage()
		defer page.MustClose()

		// The stealth script has to be registered before navigation or the
		// page sees the automation fingerprints on load.
		page.MustEvalOnNewDocument(stealthJS)
		page.MustSetViewport(1920, 1080, 1.0, false)
		page.MustNavigate(url)
		page.MustWaitLoad()
		page.MustWaitStable()

		html = page.MustHTML()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrFetchFailure, url, err)
	}
	return []byte(html), nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() {
	if f.browser != nil {
		_ = rod.Try(func() { f.browser.MustClose() })
	}
}
