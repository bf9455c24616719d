package collect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TobiSchelling/wsws-bulletin/internal/fetch"
)

const (
	perspectiveURL = "https://example.org/en/articles/2026/10/15/pers-o15.html"
	articleURL     = "https://example.org/en/articles/2026/10/15/strike.html"
	oldURL         = "https://example.org/en/articles/2026/10/13/old.html"
)

type stubExtractor struct {
	calls []string
	fail  string
}

func (s *stubExtractor) Extract(_ context.Context, url string) (*fetch.ArticleContent, error) {
	s.calls = append(s.calls, url)
	if url == s.fail {
		return nil, &fetch.NetworkError{URL: url, Err: context.DeadlineExceeded}
	}
	return &fetch.ArticleContent{Title: "T " + url, Author: "A", Date: "D", Text: "body", URL: url}, nil
}

func threeItemFeed() string {
	return rss(
		feedItem{"Perspective", perspectiveURL, ago(3 * time.Hour)},
		feedItem{"Strike", articleURL, ago(5 * time.Hour)},
		feedItem{"Old", oldURL, ago(48 * time.Hour)},
	)
}

func TestFetchAllKeepsFeaturedInArticlesByDefault(t *testing.T) {
	f, _ := newTestFeed(threeItemFeed())
	ex := &stubExtractor{}

	bundle, err := NewCollector(f, ex, false).FetchAll(context.Background(), 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Perspective == nil || bundle.Perspective.URL != perspectiveURL {
		t.Fatalf("expected perspective %s, got %+v", perspectiveURL, bundle.Perspective)
	}
	if len(bundle.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(bundle.Articles))
	}
	if bundle.Articles[0].URL != perspectiveURL || bundle.Articles[1].URL != articleURL {
		t.Errorf("unexpected article order: %s, %s", bundle.Articles[0].URL, bundle.Articles[1].URL)
	}

	want := []string{perspectiveURL, articleURL, perspectiveURL}
	if len(ex.calls) != len(want) {
		t.Fatalf("expected %d extractions, got %v", len(want), ex.calls)
	}
	for i := range want {
		if ex.calls[i] != want[i] {
			t.Errorf("extraction %d: expected %s, got %s", i, want[i], ex.calls[i])
		}
	}
}

func TestFetchAllExcludesFeatured(t *testing.T) {
	f, _ := newTestFeed(threeItemFeed())

	bundle, err := NewCollector(f, &stubExtractor{}, true).FetchAll(context.Background(), 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Perspective == nil {
		t.Fatal("expected perspective")
	}
	if len(bundle.Articles) != 1 || bundle.Articles[0].URL != articleURL {
		t.Errorf("expected only the plain article, got %+v", bundle.Articles)
	}
}

func TestFetchAllWithoutFeatured(t *testing.T) {
	f, _ := newTestFeed(rss(feedItem{"Strike", articleURL, ago(time.Hour)}))

	bundle, err := NewCollector(f, &stubExtractor{}, false).FetchAll(context.Background(), 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Perspective != nil {
		t.Error("expected no perspective")
	}
	if len(bundle.Articles) != 1 {
		t.Errorf("expected 1 article, got %d", len(bundle.Articles))
	}
}

func TestFetchAllAbortsOnExtractionFailure(t *testing.T) {
	f, _ := newTestFeed(threeItemFeed())
	ex := &stubExtractor{fail: articleURL}

	bundle, err := NewCollector(f, ex, false).FetchAll(context.Background(), 24)
	if bundle != nil {
		t.Error("expected no partial bundle")
	}
	var netErr *fetch.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if len(ex.calls) != 2 {
		t.Errorf("expected extraction to stop at the failure, got %v", ex.calls)
	}
}

func TestContentBundleIsEmpty(t *testing.T) {
	var nilBundle *ContentBundle
	if !nilBundle.IsEmpty() {
		t.Error("nil bundle should be empty")
	}
	if !(&ContentBundle{}).IsEmpty() {
		t.Error("zero bundle should be empty")
	}
	if (&ContentBundle{Perspective: &fetch.ArticleContent{}}).IsEmpty() {
		t.Error("bundle with perspective should not be empty")
	}
	if (&ContentBundle{Articles: []fetch.ArticleContent{{}}}).IsEmpty() {
		t.Error("bundle with articles should not be empty")
	}
}

func TestTruncate(t *testing.T) {
	if truncate("short", 10) != "short" {
		t.Error("expected short string unchanged")
	}
	if truncate("abcdefgh", 3) != "abc..." {
		t.Errorf("unexpected %q", truncate("abcdefgh", 3))
	}
}
