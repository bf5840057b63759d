package page

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// RenderOptions control headless rendering of a live profile page.
type RenderOptions struct {
	Timeout time.Duration
	// Settle is how long to wait after the container appears, letting the
	// host page finish loading its list asynchronously.
	Settle    time.Duration
	Container string
	Logger    *slog.Logger
}

// Render loads url in a headless browser, waits for the listing container and
// returns the rendered HTML. Requires Chrome/Chromium on the system.
func Render(ctx context.Context, url string, opts RenderOptions) (string, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Container == "" {
		opts.Container = "body"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Logger.Debug("rendering page", "url", url)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()

	var doc string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(opts.Container),
		chromedp.Sleep(opts.Settle),
		chromedp.OuterHTML("html", &doc),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	opts.Logger.Debug("page rendered", "url", url, "bytes", len(doc))
	return doc, nil
}
