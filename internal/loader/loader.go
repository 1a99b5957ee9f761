// Package loader turns a URL into a PageData snapshot using a pooled
// Playwright browser. Loads fail softly: a navigation timeout yields a
// partial snapshot, not an error, so strategies can still attempt
// best-effort extraction.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/stylearchive/catalog-scraper/internal/browser"
	"github.com/stylearchive/catalog-scraper/internal/models"
	"github.com/stylearchive/catalog-scraper/internal/oracle"
)

// maxJSONBody bounds how much of a captured response is retained.
const maxJSONBody = 2 << 20

// PageSource is what the extractor depends on. Tests substitute fakes.
type PageSource interface {
	Load(ctx context.Context, url string) (*models.PageData, error)
	Close() error
}

// pageHost is the slice of browser.Browser the loader needs from a pool
// instance. Tests substitute fakes whose NewPage fails.
type pageHost interface {
	NewPage() (playwright.Page, error)
}

type Options struct {
	Timeout       time.Duration
	SettleTime    time.Duration
	DenyList      []string
	CaptureAXTree bool

	// Oracle, when set, is consulted to dismiss overlays that cover the
	// page after load. Optional; all failures are soft.
	Oracle oracle.Oracle
}

// BrowserLoader loads pages through a browser pool.
type BrowserLoader struct {
	pool   *browser.Pool
	opts   Options
	logger *slog.Logger
}

func New(pool *browser.Pool, opts Options) *BrowserLoader {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.SettleTime == 0 {
		opts.SettleTime = 2 * time.Second
	}

	return &BrowserLoader{
		pool:   pool,
		opts:   opts,
		logger: slog.Default().With("component", "loader"),
	}
}

// Load navigates to url and captures the rendered HTML, JSON responses
// and observed image URLs. The returned error is reserved for driver
// failures (pool exhaustion cancelled by ctx, page creation); navigation
// problems are folded into a partial PageData.
func (l *BrowserLoader) Load(ctx context.Context, url string) (*models.PageData, error) {
	handle, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	// A dead browser process must not go back into rotation, so failure
	// paths below discard the handle instead of releasing it.
	discard := false
	defer func() {
		if discard {
			l.pool.Discard(handle)
		} else {
			l.pool.Release(handle)
		}
	}()

	b, ok := handle.Instance().(pageHost)
	if !ok {
		return nil, browser.ErrPoolClosed
	}

	page, err := b.NewPage()
	if err != nil {
		discard = true
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	pd := models.NewPageData(url)
	var mu sync.Mutex

	page.OnResponse(func(resp playwright.Response) {
		l.captureResponse(&mu, pd, resp)
	})

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(l.opts.Timeout.Milliseconds())),
	}); err != nil {
		pd.Partial = true
		pd.LoadErr = err.Error()
		if isBrowserGone(err) {
			discard = true
		}
		l.logger.Warn("navigation failed, keeping partial snapshot", "url", url, "error", err)
	}

	// Client-rendered storefronts keep painting after DOMContentLoaded;
	// the settle wait trades throughput for completeness.
	page.WaitForTimeout(float64(l.opts.SettleTime.Milliseconds()))

	if l.opts.Oracle != nil {
		l.dismissOverlay(ctx, page)
	}

	html, err := page.Content()
	if err != nil {
		pd.Partial = true
		if pd.LoadErr == "" {
			pd.LoadErr = err.Error()
		}
		if isBrowserGone(err) {
			discard = true
		}
	} else {
		pd.HTML = html
	}

	if l.opts.CaptureAXTree {
		if tree, err := page.Evaluate(axTreeScript); err == nil {
			if s, ok := tree.(string); ok {
				pd.AccessibilityTree = s
			}
		}
	}

	return pd, nil
}

func (l *BrowserLoader) Close() error {
	return l.pool.Close()
}

// captureResponse keeps JSON bodies from non-tracking origins and notes
// image URLs. Runs on the driver's event goroutine.
func (l *BrowserLoader) captureResponse(mu *sync.Mutex, pd *models.PageData, resp playwright.Response) {
	url := resp.URL()
	contentType := resp.Headers()["content-type"]

	switch {
	case isImageResponse(contentType, url):
		mu.Lock()
		pd.ImageURLs = append(pd.ImageURLs, url)
		mu.Unlock()

	case isJSONResponse(contentType) && !isDenied(url, l.opts.DenyList):
		body, err := resp.Body()
		if err != nil || len(body) == 0 || len(body) > maxJSONBody {
			return
		}
		headers := resp.Request().Headers()

		mu.Lock()
		pd.JSONResponses[url] = body
		pd.APIHeaders[url] = headers
		mu.Unlock()
	}
}

// dismissOverlay asks the oracle which visible button closes a blocking
// overlay, then clicks it. Every step is best-effort.
func (l *BrowserLoader) dismissOverlay(ctx context.Context, page playwright.Page) {
	raw, err := page.Evaluate(overlayButtonsScript)
	if err != nil {
		return
	}

	items, ok := raw.([]interface{})
	if !ok || len(items) == 0 {
		return
	}

	buttons := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			buttons = append(buttons, s)
		}
	}
	if len(buttons) == 0 {
		return
	}

	idx, err := oracle.ClassifyDismissButton(ctx, l.opts.Oracle, buttons)
	if err != nil || idx < 0 {
		return
	}

	if _, err := page.Evaluate(clickButtonByTextScript, buttons[idx]); err != nil {
		l.logger.Debug("overlay dismissal click failed", "error", err)
		return
	}
	page.WaitForTimeout(500)
}

func isJSONResponse(contentType string) bool {
	return strings.Contains(contentType, "application/json") ||
		strings.Contains(contentType, "application/ld+json")
}

func isImageResponse(contentType, url string) bool {
	if strings.HasPrefix(contentType, "image/") {
		return true
	}
	lower := strings.ToLower(url)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp", ".avif"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

// isBrowserGone reports whether err means the browser process itself is
// unusable, as opposed to the navigation having failed on a live browser.
func isBrowserGone(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"browser has been closed",
		"Target page, context or browser has been closed",
		"browser closed",
		"Connection closed",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// isDenied matches url against the tracking deny-list by substring.
func isDenied(url string, denyList []string) bool {
	for _, deny := range denyList {
		if deny != "" && strings.Contains(url, deny) {
			return true
		}
	}
	return false
}

const overlayButtonsScript = `() => {
	const texts = [];
	const candidates = document.querySelectorAll(
		'[class*="modal"] button, [class*="popup"] button, [class*="overlay"] button, ' +
		'[class*="cookie"] button, [class*="consent"] button, [id*="cookie"] button, ' +
		'[role="dialog"] button, [role="dialog"] a'
	);
	for (const el of candidates) {
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 || rect.height === 0) continue;
		const text = (el.textContent || '').trim();
		if (text && text.length < 60) texts.push(text);
	}
	return texts.slice(0, 20);
}`

const clickButtonByTextScript = `(target) => {
	const candidates = document.querySelectorAll('button, a');
	for (const el of candidates) {
		if ((el.textContent || '').trim() === target) {
			el.click();
			return true;
		}
	}
	return false;
}`

const axTreeScript = `() => {
	const walk = (el, depth) => {
		if (depth > 6) return null;
		const role = el.getAttribute ? (el.getAttribute('role') || el.tagName.toLowerCase()) : '';
		const label = el.getAttribute ? (el.getAttribute('aria-label') || '') : '';
		const node = { role, label, children: [] };
		for (const child of el.children || []) {
			const c = walk(child, depth + 1);
			if (c) node.children.push(c);
		}
		return node;
	};
	return JSON.stringify(walk(document.body, 0));
}`
