package probe

import (
	"context"
	"net/http"
	"time"
)

// DefaultConnectivityURL is a well-known endpoint that answers 204 with no
// body, used to tell local outages apart from monitor outages.
const DefaultConnectivityURL = "https://www.gstatic.com/generate_204"

// Connectivity is a cheap reachability gate. When it reports offline, no
// monitor checks run in that pass, so a local network loss does not mark
// every monitor down.
type Connectivity struct {
	client *http.Client
	url    string
}

// NewConnectivity creates a connectivity gate against the given endpoint.
func NewConnectivity(url string, timeout time.Duration) *Connectivity {
	if url == "" {
		url = DefaultConnectivityURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Connectivity{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

// Online reports whether the well-known endpoint answered successfully.
// Any transport error, timeout, or non-success status counts as offline.
func (c *Connectivity) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 400
}
