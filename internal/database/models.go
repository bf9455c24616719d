package database

import (
	"net/http"
	"time"
)

// CachedResponse is a stored HTTP response keyed by request URL.
type CachedResponse struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	StoredAt   time.Time
}

// Stats summarizes the contents of the response cache.
type Stats struct {
	Entries   int
	BodyBytes int64
	Oldest    *time.Time
	Newest    *time.Time
}
