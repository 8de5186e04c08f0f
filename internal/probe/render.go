package probe

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeRenderer implements Renderer with a headless Chrome instance via
// chromedp. A fresh browser context is used per render so a wedged page
// cannot poison later renders.
type ChromeRenderer struct {
	opts []chromedp.ExecAllocatorOption
}

// NewChromeRenderer creates a headless-browser renderer with sandbox-safe
// launch flags.
func NewChromeRenderer() *ChromeRenderer {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-zygote", true),
		chromedp.Flag("mute-audio", true),
	)
	return &ChromeRenderer{opts: opts}
}

// Render loads the page and returns its title and visible body text. The
// caller bounds the overall time via ctx.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (*RenderedPage, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var title, text string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		// Give client-side rendering a moment to settle.
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Title(&title),
		chromedp.Text("body", &text, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}

	return &RenderedPage{Title: title, TextContent: text}, nil
}
