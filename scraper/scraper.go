package scraper

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"tour-importer/config"
	"tour-importer/models"
)

const USER_AGENT = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

// pageLoadTimeout bounds the whole browser session. Marketplace pages render
// client-side and can take a long time behind their CDN, so this stays generous.
const pageLoadTimeout = 45 * time.Second

// stealthScript runs before every document in the session and hides the most
// common automation fingerprints the marketplace checks for.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3] });
window.chrome = window.chrome || { runtime: {} };
`

// Scrape drives a headless browser to the listing URL and extracts a
// RawTourRecord. The browser session is always torn down, and the politeness
// delay runs after teardown regardless of the outcome.
func Scrape(ctx context.Context, listingURL string, cfg config.AppConfig) (*models.RawTourRecord, error) {
	if err := validateDomain(listingURL, cfg.Source.Domain); err != nil {
		return nil, &models.ExtractionError{URL: listingURL, Err: err}
	}

	htmlContent, err := renderListing(ctx, listingURL)

	// Courtesy delay toward the marketplace, enforced once per run after the
	// browser session closes. Not a retry backoff.
	if cfg.Env.ScrapeDelay > 0 {
		config.Logger.Infof("rate limit: sleeping %s before continuing", cfg.Env.ScrapeDelay)
		time.Sleep(cfg.Env.ScrapeDelay)
	}

	if err != nil {
		return nil, &models.ExtractionError{URL: listingURL, Err: err}
	}

	record, err := Extract(htmlContent, listingURL, cfg)
	if err != nil {
		return nil, &models.ExtractionError{URL: listingURL, Err: err}
	}
	return record, nil
}

func validateDomain(listingURL, domain string) error {
	u, err := url.Parse(listingURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host != domain && !strings.HasSuffix(host, "."+domain) {
		return fmt.Errorf("host %q is not part of %s", host, domain)
	}
	return nil
}

// renderListing owns the entire browser lifetime: allocator, context, load
// wait, lazy-load scroll and the best-effort read-more expansion. All three
// cancels run before it returns.
func renderListing(ctx context.Context, listingURL string) (string, error) {
	chromePath := os.Getenv("CHROME_PATH")
	if chromePath == "" {
		chromePath = "/usr/bin/chromium-browser" // Docker/Linux default
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(chromePath),
		chromedp.UserAgent(USER_AGENT),
		chromedp.WindowSize(1366, 768),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-crashpad", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("headless", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancelRun := context.WithTimeout(browserCtx, pageLoadTimeout)
	defer cancelRun()

	var htmlContent string
	err := chromedp.Run(runCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": "en-US,en;q=0.9",
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(listingURL),
		// The h1 is the minimal marker that the listing content rendered.
		chromedp.WaitVisible("h1", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		scrollThroughPage(),
		expandReadMore(),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		return "", err
	}
	return htmlContent, nil
}

// scrollThroughPage scrolls down in steps so lazy-loaded images and review
// sections get a chance to mount.
func scrollThroughPage() chromedp.Tasks {
	var tasks chromedp.Tasks
	for i := 0; i < 6; i++ {
		tasks = append(tasks,
			chromedp.Evaluate(`window.scrollBy(0, Math.floor(window.innerHeight * 0.8));`, nil),
			chromedp.Sleep(400*time.Millisecond),
		)
	}
	tasks = append(tasks, chromedp.Evaluate(`window.scrollTo(0, 0);`, nil))
	return tasks
}

// expandReadMore clicks the truncated-description toggle when present. The
// control is absent on short listings, so a miss is not an error.
func expandReadMore() chromedp.ActionFunc {
	return func(ctx context.Context) error {
		clickCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		selector := `button[data-test-id*="read-more"], button[class*="read-more"], [class*="show-more"] button`
		if err := chromedp.Click(selector, chromedp.ByQuery).Do(clickCtx); err != nil {
			config.Logger.Debugf("no read-more control found: %v", err)
			return nil
		}
		return chromedp.Sleep(500 * time.Millisecond).Do(ctx)
	}
}
