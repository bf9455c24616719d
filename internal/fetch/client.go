package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NetworkError reports a failed fetch: a transport error, a timeout or a
// non-2xx response. StatusCode is zero when no response was received.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client performs GET requests with a fixed User-Agent. Caching, when
// enabled, is done by the underlying transport.
type Client struct {
	userAgent string
	client    *http.Client
}

// NewClient creates a new Client. A nil transport uses http.DefaultTransport.
func NewClient(timeout time.Duration, userAgent string, transport http.RoundTripper) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		userAgent: userAgent,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Get fetches url and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	return body, nil
}
