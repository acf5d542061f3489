package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Booking sites render their result lists client side, so those adapters go
// through headless Chrome instead of plain HTTP.

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func browserOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(browserUserAgent),
	)
}

// renderedHTML loads a page in headless Chrome, waits for waitSelector to
// appear, and returns the rendered document.
func renderedHTML(ctx context.Context, pageURL, waitSelector string, logger *zap.Logger) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, browserOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(waitSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}

	logger.Debug("page rendered", zap.String("url", pageURL), zap.Int("bytes", len(html)))
	return html, nil
}

// scrolledHTML loads a page and keeps scrolling to the last result item until
// the item count stops growing, so lazily loaded lists are fully present in
// the returned document.
func scrolledHTML(ctx context.Context, pageURL, itemSelector string, logger *zap.Logger) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, browserOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, 90*time.Second)
	defer cancelTimeout()

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(5*time.Second),
	); err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}

	countScript := fmt.Sprintf("document.querySelectorAll(%q).length", itemSelector)
	scrollScript := fmt.Sprintf(
		"(function(){var items=document.querySelectorAll(%q);if(items.length){items[items.length-1].scrollIntoView({behavior:'smooth',block:'center'});}})()",
		itemSelector)

	prevCount, sameCount := 0, 0
	for attempt := 0; attempt < 10; attempt++ {
		var count int
		if err := chromedp.Run(browserCtx, chromedp.Evaluate(countScript, &count)); err != nil {
			return "", fmt.Errorf("count items on %s: %w", pageURL, err)
		}
		if count == 0 {
			break
		}
		if count == prevCount {
			sameCount++
			if sameCount >= 2 {
				break
			}
		} else {
			sameCount = 0
			prevCount = count
		}

		if err := chromedp.Run(browserCtx,
			chromedp.Evaluate(scrollScript, nil),
			chromedp.Sleep(3*time.Second),
		); err != nil {
			return "", fmt.Errorf("scroll %s: %w", pageURL, err)
		}
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page %s: %w", pageURL, err)
	}

	logger.Debug("page scrolled and rendered",
		zap.String("url", pageURL),
		zap.Int("items", prevCount))
	return html, nil
}
