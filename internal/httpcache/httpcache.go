// Package httpcache provides a transparent response cache for GET requests.
package httpcache

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/TobiSchelling/wsws-bulletin/internal/database"
)

// XFromCache is set on responses served from the cache.
const XFromCache = "X-From-Cache"

// Store persists cached responses keyed by URL.
type Store interface {
	GetResponse(url string) (*database.CachedResponse, error)
	PutResponse(r *database.CachedResponse) error
}

// Transport is an http.RoundTripper that serves fresh GET responses from a
// Store and falls back to stale entries when the upstream fails.
type Transport struct {
	Store  Store
	Expiry time.Duration
	Next   http.RoundTripper

	now func() time.Time
}

// NewTransport creates a caching transport in front of next
// (http.DefaultTransport when nil).
func NewTransport(store Store, expiry time.Duration, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{Store: store, Expiry: expiry, Next: next, now: time.Now}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.Next.RoundTrip(req)
	}

	key := req.URL.String()
	cached, err := t.Store.GetResponse(key)
	if err != nil {
		log.Printf("Cache lookup failed for %s: %v", key, err)
		cached = nil
	}

	if cached != nil && t.now().Sub(cached.StoredAt) < t.Expiry {
		return toResponse(req, cached), nil
	}

	resp, err := t.Next.RoundTrip(req)
	if err != nil {
		if cached != nil {
			log.Printf("Request for %s failed (%v), using stale cache", key, err)
			return toResponse(req, cached), nil
		}
		return nil, err
	}

	if resp.StatusCode >= 500 && cached != nil {
		resp.Body.Close()
		log.Printf("Request for %s returned %d, using stale cache", key, resp.StatusCode)
		return toResponse(req, cached), nil
	}

	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		if cached != nil {
			return toResponse(req, cached), nil
		}
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	entry := &database.CachedResponse{
		URL:        key,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		StoredAt:   t.now(),
	}
	if err := t.Store.PutResponse(entry); err != nil {
		log.Printf("Cache store failed for %s: %v", key, err)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func toResponse(req *http.Request, c *database.CachedResponse) *http.Response {
	header := c.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(XFromCache, "1")
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", c.StatusCode, http.StatusText(c.StatusCode)),
		StatusCode:    c.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(c.Body)),
		ContentLength: int64(len(c.Body)),
		Request:       req,
	}
}
