package probe

import (
	"context"
	"html"
	"regexp"
	"strings"
	"time"

	"watchpost/internal/models"
)

// RenderedPage is what the rendered-page capability returns for a URL.
type RenderedPage struct {
	Title       string
	TextContent string
}

// Renderer models a headless browser: render a page, return its title and
// visible text. Used only as the fallback tier of content validation.
type Renderer interface {
	Render(ctx context.Context, url string) (*RenderedPage, error)
}

// ContentValidator decides whether a monitor's expected title/content are
// present. The static tier inspects the raw HTML; if that fails, the
// rendered tier asks a headless browser, because single-page apps may not
// expose the real title or content in raw HTML.
type ContentValidator struct {
	renderer Renderer
	timeout  time.Duration
}

// NewContentValidator creates a content validator. renderer may be nil to
// disable the rendered fallback tier.
func NewContentValidator(renderer Renderer, timeout time.Duration) *ContentValidator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ContentValidator{renderer: renderer, timeout: timeout}
}

// Validate reports whether the expected title/content are present, trying
// the static tier first and the rendered tier only on static failure.
func (v *ContentValidator) Validate(ctx context.Context, monitor *models.Monitor, body string) bool {
	if matchRules(monitor.ExpectedTitle, monitor.ExpectedContent, ExtractTitle(body), body) {
		return true
	}

	if v.renderer == nil {
		return false
	}

	rctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	page, err := v.renderer.Render(rctx, monitor.URL)
	if err != nil {
		return false
	}

	return matchRules(monitor.ExpectedTitle, monitor.ExpectedContent, page.Title, page.TextContent)
}

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
var spaceRe = regexp.MustCompile(`\s+`)

// ExtractTitle pulls the <title> text out of raw HTML, decoding entities
// and collapsing whitespace. Returns "" when no title is present.
func ExtractTitle(body string) string {
	m := titleRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	title := html.UnescapeString(m[1])
	return strings.TrimSpace(spaceRe.ReplaceAllString(title, " "))
}

// matchRules applies the shared title/content rules against a title and a
// text corpus. The title check passes when no title is expected, the title
// matches exactly, or the expected title appears case-insensitively in the
// corpus. The content check passes when no content is expected or it
// appears case-insensitively in the corpus.
func matchRules(expectedTitle, expectedContent, title, corpus string) bool {
	titleOK := expectedTitle == "" ||
		title == expectedTitle ||
		containsFold(corpus, expectedTitle)

	contentOK := expectedContent == "" ||
		containsFold(corpus, expectedContent)

	return titleOK && contentOK
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
