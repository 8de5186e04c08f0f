package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"watchpost/internal/models"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"simple", "<html><title>Hello</title></html>", "Hello"},
		{"with attributes", `<title data-x="1">Hello</title>`, "Hello"},
		{"uppercase tag", "<TITLE>Hello</TITLE>", "Hello"},
		{"multiline", "<title>\n  Hello\n  World\n</title>", "Hello World"},
		{"entities", "<title>Tom &amp; Jerry</title>", "Tom & Jerry"},
		{"no title", "<html><body>nope</body></html>", ""},
		{"empty title", "<title></title>", ""},
		{"empty body", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTitle(tt.body); got != tt.want {
				t.Errorf("ExtractTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatchRules(t *testing.T) {
	tests := []struct {
		name            string
		expectedTitle   string
		expectedContent string
		title           string
		corpus          string
		want            bool
	}{
		{"nothing expected", "", "", "Any", "anything", true},
		{"exact title", "Home", "", "Home", "", true},
		{"title in corpus", "welcome", "", "Other", "Welcome to our site", true},
		{"title missing", "Home", "", "Other", "nothing here", false},
		{"content present", "", "operational", "", "All systems Operational", true},
		{"content missing", "", "operational", "", "outage", false},
		{"both required both present", "Status", "ok", "Status", "everything ok", true},
		{"both required one missing", "Status", "ok", "Status", "broken", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchRules(tt.expectedTitle, tt.expectedContent, tt.title, tt.corpus)
			if got != tt.want {
				t.Errorf("matchRules() = %v, want %v", got, tt.want)
			}
		})
	}
}

type fakeRenderer struct {
	page  *RenderedPage
	err   error
	calls int
}

func (f *fakeRenderer) Render(ctx context.Context, url string) (*RenderedPage, error) {
	f.calls++
	return f.page, f.err
}

func contentMonitor(title, content string) *models.Monitor {
	return &models.Monitor{
		URL:             "https://example.com",
		ContentCheck:    true,
		ExpectedTitle:   title,
		ExpectedContent: content,
	}
}

func TestContentValidatorStaticTier(t *testing.T) {
	renderer := &fakeRenderer{}
	v := NewContentValidator(renderer, time.Second)

	body := "<html><title>Dashboard</title><body>metrics here</body></html>"
	if !v.Validate(context.Background(), contentMonitor("Dashboard", ""), body) {
		t.Fatal("expected static tier to pass")
	}
	if renderer.calls != 0 {
		t.Errorf("renderer should not run when the static tier passes, got %d calls", renderer.calls)
	}
}

func TestContentValidatorRenderedFallback(t *testing.T) {
	// Raw HTML is an app shell; the rendered page carries the real content.
	renderer := &fakeRenderer{
		page: &RenderedPage{Title: "Dashboard", TextContent: "metrics here"},
	}
	v := NewContentValidator(renderer, time.Second)

	shell := `<html><title>Loading...</title><div id="app"></div></html>`
	if !v.Validate(context.Background(), contentMonitor("Dashboard", "metrics"), shell) {
		t.Fatal("expected rendered tier to pass")
	}
	if renderer.calls != 1 {
		t.Errorf("expected exactly one render call, got %d", renderer.calls)
	}
}

func TestContentValidatorRenderedFailsToo(t *testing.T) {
	renderer := &fakeRenderer{
		page: &RenderedPage{Title: "Loading...", TextContent: "spinner"},
	}
	v := NewContentValidator(renderer, time.Second)

	if v.Validate(context.Background(), contentMonitor("Dashboard", ""), "<html></html>") {
		t.Fatal("expected validation to fail when both tiers miss")
	}
}

func TestContentValidatorRendererError(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("browser crashed")}
	v := NewContentValidator(renderer, time.Second)

	if v.Validate(context.Background(), contentMonitor("Dashboard", ""), "<html></html>") {
		t.Fatal("renderer failure must not count as a match")
	}
}

func TestContentValidatorNoRenderer(t *testing.T) {
	v := NewContentValidator(nil, time.Second)

	if v.Validate(context.Background(), contentMonitor("Dashboard", ""), "<html></html>") {
		t.Fatal("static miss with no renderer must fail")
	}
}
