// Package browser implements the rendering extraction strategy on top of
// a long-lived headless Chrome instance driven through chromedp.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	fakeua "github.com/EDDYCJY/fake-useragent"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"epin-scraper/config"
	"epin-scraper/extract"
	"epin-scraper/models"
	"epin-scraper/services"
)

// blockedAssetPatterns are aborted on every page load except for
// full-asset profiles, to keep navigation fast.
var blockedAssetPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg",
	"*.css", "*.woff", "*.woff2", "*.ttf",
}

const waitConditionTimeout = 10 * time.Second

// Extractor drives one shared browser instance. The instance is created
// lazily on first use and torn down by Close; each Scrape call runs in
// its own tab.
type Extractor struct {
	cfg *config.Config

	mu          sync.Mutex
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
}

// New creates a rendering extractor. No browser is launched yet.
func New(cfg *config.Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// browser returns the shared browser context, launching Chrome on the
// first call.
func (e *Extractor) browser() (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browserCtx != nil && e.browserCtx.Err() == nil {
		return e.browserCtx, nil
	}

	ua := e.cfg.UserAgent
	if ua == "" {
		ua = fakeua.Random()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"),
		chromedp.UserAgent(ua),
		chromedp.WindowSize(1366, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Launch eagerly so a broken Chrome install surfaces here rather
	// than on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	e.browserCtx = browserCtx
	e.cancelAlloc = cancelAlloc
	e.cancelCtx = cancelCtx
	slog.Info("headless browser launched")
	return browserCtx, nil
}

// Scrape renders url in a fresh tab and runs the selector cascade over
// the resulting DOM. Zero extracted items is reported as a failure so
// that "ran fine but matched nothing" is visible in the batch report.
func (e *Extractor) Scrape(ctx context.Context, url string, profile models.SiteProfile) models.ScrapeOutcome {
	start := time.Now()
	domain := services.ExtractDomain(url)
	fail := func(msg string) models.ScrapeOutcome {
		return models.ScrapeOutcome{
			URL:          url,
			Succeeded:    false,
			ErrorMessage: msg,
			Elapsed:      time.Since(start),
			SiteDomain:   domain,
		}
	}

	if err := ctx.Err(); err != nil {
		return fail(fmt.Sprintf("context cancelled: %v", err))
	}

	browserCtx, err := e.browser()
	if err != nil {
		return fail(fmt.Sprintf("browser unavailable: %v", err))
	}

	// Fresh tab per URL; closed on every exit path.
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	html, err := e.renderPage(tabCtx, url, profile)
	if err != nil {
		return fail(err.Error())
	}

	items, err := extract.Parse(html, url, domain, profile.Selectors)
	if err != nil {
		return fail(fmt.Sprintf("parse rendered html: %v", err))
	}
	if len(items) == 0 {
		return fail("no items matched the selector cascade")
	}

	return models.ScrapeOutcome{
		URL:        url,
		Succeeded:  true,
		Items:      items,
		Elapsed:    time.Since(start),
		SiteDomain: domain,
	}
}

// renderPage navigates, waits for content and returns the rendered HTML.
func (e *Extractor) renderPage(tabCtx context.Context, url string, profile models.SiteProfile) (string, error) {
	setup := []chromedp.Action{
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": "tr-TR,tr;q=0.9,en;q=0.8",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		}),
	}
	if !profile.FullAssets {
		setup = append(setup, network.SetBlockedURLS(blockedAssetPatterns))
	}

	// Primary attempt: full timeout, wait for the document to settle.
	navCtx, cancel := context.WithTimeout(tabCtx, e.cfg.RenderTimeout)
	err := chromedp.Run(navCtx,
		append(setup,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(e.cfg.RenderWait),
		)...,
	)
	cancel()
	if err != nil {
		// Recoverable: retry once with a looser wait and a shorter budget.
		slog.Warn("navigation fallback", slog.String("url", url), slog.Any("error", err))
		navCtx, cancel = context.WithTimeout(tabCtx, e.cfg.RenderTimeout/2)
		err = chromedp.Run(navCtx,
			chromedp.Navigate(url),
			chromedp.Sleep(e.cfg.RenderWait),
		)
		cancel()
		if err != nil {
			return "", fmt.Errorf("navigation failed: %v", err)
		}
	}

	if profile.WaitCondition != "" {
		waitCtx, cancelWait := context.WithTimeout(tabCtx, waitConditionTimeout)
		err = chromedp.Run(waitCtx, chromedp.WaitVisible(profile.WaitCondition, chromedp.ByQuery))
		cancelWait()
		if err != nil {
			// The markup may have loaded under a different selector;
			// give the page a moment and carry on.
			slog.Debug("wait condition missed",
				slog.String("url", url),
				slog.String("selector", profile.WaitCondition),
			)
			_ = chromedp.Run(tabCtx, chromedp.Sleep(e.cfg.RenderWait))
		}
	}

	if profile.FullAssets {
		var scrollHeight int64
		err = chromedp.Run(tabCtx,
			chromedp.Sleep(e.cfg.RenderWait),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight); document.body.scrollHeight`, &scrollHeight),
			chromedp.Sleep(e.cfg.RenderWait),
		)
		if err != nil {
			slog.Debug("lazy-load scroll failed", slog.String("url", url), slog.Any("error", err))
		}
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("capture rendered html: %v", err)
	}
	return html, nil
}

// Close tears down the shared browser instance if one was launched.
func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browserCtx == nil {
		return nil
	}
	e.cancelCtx()
	e.cancelAlloc()
	e.browserCtx = nil
	slog.Info("headless browser closed")
	return nil
}
