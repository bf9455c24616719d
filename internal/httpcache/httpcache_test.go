package httpcache

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TobiSchelling/wsws-bulletin/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestServesFreshEntryWithoutNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		fmt.Fprintf(w, "body %d", n)
	}))
	defer srv.Close()

	c := &clock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	tr := NewTransport(openTestDB(t), 30*time.Minute, nil)
	tr.now = c.now
	client := &http.Client{Transport: tr}

	_, first := get(t, client, srv.URL)
	c.t = c.t.Add(10 * time.Minute)
	resp, second := get(t, client, srv.URL)

	if first != "body 1" || second != "body 1" {
		t.Errorf("expected cached body twice, got %q and %q", first, second)
	}
	if resp.Header.Get(XFromCache) != "1" {
		t.Error("expected X-From-Cache header on cached response")
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("expected 1 upstream hit, got %d", hits)
	}
}

func TestExpiredEntryRefetches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		fmt.Fprintf(w, "body %d", n)
	}))
	defer srv.Close()

	c := &clock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	tr := NewTransport(openTestDB(t), 30*time.Minute, nil)
	tr.now = c.now
	client := &http.Client{Transport: tr}

	get(t, client, srv.URL)
	c.t = c.t.Add(31 * time.Minute)
	_, body := get(t, client, srv.URL)

	if body != "body 2" {
		t.Errorf("expected refreshed body, got %q", body)
	}
}

func TestStaleIfError(t *testing.T) {
	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "good")
	}))
	defer srv.Close()

	c := &clock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	tr := NewTransport(openTestDB(t), time.Minute, nil)
	tr.now = c.now
	client := &http.Client{Transport: tr}

	get(t, client, srv.URL)
	failing.Store(true)
	c.t = c.t.Add(time.Hour)

	resp, body := get(t, client, srv.URL)
	if resp.StatusCode != http.StatusOK || body != "good" {
		t.Errorf("expected stale 200 'good', got %d %q", resp.StatusCode, body)
	}
}

func TestErrorWithoutCacheIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	db := openTestDB(t)
	client := &http.Client{Transport: NewTransport(db, time.Minute, nil)}

	resp, _ := get(t, client, srv.URL)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if r, _ := db.GetResponse(srv.URL); r != nil {
		t.Error("expected non-200 response not to be cached")
	}
}

func TestNonGetBypassesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(openTestDB(t), time.Hour, nil)}
	for i := 0; i < 2; i++ {
		resp, err := client.Post(srv.URL, "text/plain", nil)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		resp.Body.Close()
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Errorf("expected 2 upstream hits, got %d", hits)
	}
}
