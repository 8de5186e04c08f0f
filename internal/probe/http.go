package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"watchpost/internal/models"
)

// maxReadBytes bounds how much of a response body is read for content
// validation; the stored excerpt is capped separately at
// models.MaxBodyLength.
const maxReadBytes = 1 << 20

// HTTPProber performs the configured HTTP request against a website monitor.
type HTTPProber struct {
	client    *http.Client
	validator *ContentValidator
	guard     *URLGuard
	now       func() time.Time
}

// NewHTTPProber creates an HTTP prober. validator and guard may be nil, in
// which case content validation and URL guarding are skipped.
func NewHTTPProber(timeout time.Duration, validator *ContentValidator, guard *URLGuard) *HTTPProber {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPProber{
		client: &http.Client{
			Timeout: timeout,
		},
		validator: validator,
		guard:     guard,
		now:       time.Now,
	}
}

// Kind returns the monitor kind this prober handles
func (p *HTTPProber) Kind() string {
	return models.KindWebsite
}

// Validate validates the monitor configuration
func (p *HTTPProber) Validate(monitor *models.Monitor) error {
	if monitor.URL == "" {
		return fmt.Errorf("URL is required for website monitor")
	}
	if !strings.HasPrefix(monitor.URL, "http://") && !strings.HasPrefix(monitor.URL, "https://") {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if p.guard != nil {
		if err := p.guard.ValidateURL(monitor.URL); err != nil {
			return fmt.Errorf("URL validation failed: %w", err)
		}
	}
	return nil
}

// Probe performs the HTTP check. All failure modes resolve into a Result so
// the caller can always persist a Check row.
func (p *HTTPProber) Probe(ctx context.Context, monitor *models.Monitor) *Result {
	result := &Result{Status: models.StatusDown}

	method := monitor.Method
	if method == "" {
		method = http.MethodGet
	}

	target := monitor.URL
	var reqBody io.Reader

	if len(monitor.Params) > 0 {
		values := url.Values{}
		for k, v := range monitor.Params {
			values.Set(k, v)
		}
		if method == http.MethodGet {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target = target + sep + values.Encode()
		} else {
			reqBody = strings.NewReader(values.Encode())
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		result.ErrorMessage = strPtr(fmt.Sprintf("Failed to create request: %v", err))
		return result
	}

	if method == http.MethodPost && reqBody != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for key, value := range monitor.Headers {
		req.Header.Set(key, value)
	}

	start := p.now()
	resp, err := p.client.Do(req)
	result.ResponseTime = time.Since(start).Milliseconds()

	if err != nil {
		result.ErrorMessage = strPtr(fmt.Sprintf("Request failed: %v", err))
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = intPtr(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.ErrorMessage = strPtr(fmt.Sprintf("HTTP %d", resp.StatusCode))
		return result
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
	if err != nil {
		result.ErrorMessage = strPtr(fmt.Sprintf("Failed to read response body: %v", err))
		return result
	}
	body := string(bodyBytes)
	result.Body = models.TruncateBody(body)

	if !monitor.ContentCheck || p.validator == nil {
		result.Status = models.StatusUp
		return result
	}

	if p.validator.Validate(ctx, monitor, body) {
		result.Status = models.StatusUp
		result.ContentValid = boolPtr(true)
	} else {
		result.ContentValid = boolPtr(false)
		result.ErrorMessage = strPtr("Expected content not found")
	}

	return result
}
