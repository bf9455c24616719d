package compose

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/wsws-bulletin/internal/collect"
	"github.com/TobiSchelling/wsws-bulletin/internal/fetch"
)

var genTime = time.Date(2026, 10, 5, 7, 4, 9, 0, time.Local)

func testBundle() *collect.ContentBundle {
	return &collect.ContentBundle{
		Perspective: &fetch.ArticleContent{Title: "The perspective", URL: "https://example.org/pers-1"},
		Articles: []fetch.ArticleContent{
			{Title: "First", URL: "https://example.org/1"},
			{Title: "Second", URL: "https://example.org/2"},
		},
	}
}

func TestRenderDefaultTitle(t *testing.T) {
	b := Render(testBundle(), "Synthesis", "", genTime)
	if b.Title != "WSWS Daily Bulletin - October 05, 2026" {
		t.Errorf("unexpected title %q", b.Title)
	}

	b = Render(testBundle(), "Synthesis", "Special edition", genTime)
	if b.Title != "Special edition" {
		t.Errorf("expected override title, got %q", b.Title)
	}
}

func TestTextLayout(t *testing.T) {
	text := Render(testBundle(), "Line one\nLine two", "", genTime).Text()
	lines := strings.Split(text, "\n")

	if lines[0] != banner || lines[len(lines)-1] != banner {
		t.Errorf("expected document to start and end with the banner")
	}
	if lines[2] != banner || lines[3] != "" {
		t.Errorf("expected banner and blank line after title, got %q %q", lines[2], lines[3])
	}
	if strings.TrimSpace(lines[1]) != "WSWS Daily Bulletin - October 05, 2026" || len(lines[1]) != width {
		t.Errorf("expected centered title of width %d, got %q", width, lines[1])
	}
	if lines[4] != "Line one" || lines[5] != "Line two" || lines[6] != "" {
		t.Errorf("expected synthesis body after header, got %q", lines[4:7])
	}
	if !strings.Contains(text, banner+"\nGenerated: 2026-10-05 07:04:09\n\nSource Articles:\n") {
		t.Errorf("expected generation footer, got:\n%s", text)
	}
}

func TestTextSourceBulletsInBundleOrder(t *testing.T) {
	text := Render(testBundle(), "S", "", genTime).Text()

	if n := strings.Count(text, "  • "); n != 3 {
		t.Errorf("expected 3 bullets, got %d", n)
	}
	want := "Source Articles:\n" +
		"  • [PERSPECTIVE] The perspective\n    https://example.org/pers-1\n" +
		"  • First\n    https://example.org/1\n" +
		"  • Second\n    https://example.org/2\n" + banner
	if !strings.HasSuffix(text, want) {
		t.Errorf("unexpected source listing:\n%s", text)
	}
}

func TestTextWithoutPerspective(t *testing.T) {
	bundle := testBundle()
	bundle.Perspective = nil
	b := Render(bundle, "S", "", genTime)

	if len(b.SourceLinks) != 2 {
		t.Errorf("expected 2 source links, got %d", len(b.SourceLinks))
	}
	if strings.Contains(b.Text(), "[PERSPECTIVE]") {
		t.Error("expected no perspective bullet")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	b := Render(testBundle(), "S", "", genTime)

	path, err := Save(b, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "bulletin_2026-10-05.md" {
		t.Errorf("unexpected file name %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading bulletin: %v", err)
	}
	if string(data) != b.Text() {
		t.Error("expected file contents to match rendered text")
	}
}

func TestCenter(t *testing.T) {
	if got := center("ab", 6); got != "  ab  " {
		t.Errorf("unexpected %q", got)
	}
	if got := center("abc", 6); got != " abc  " {
		t.Errorf("unexpected %q", got)
	}
	long := strings.Repeat("x", 90)
	if got := center(long, 80); got != long {
		t.Error("expected long titles unchanged")
	}
}

func TestParseRoundTrip(t *testing.T) {
	orig := Render(testBundle(), "**Executive Summary**\n\nText.", "", genTime)

	b, err := Parse(orig.Text())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Title != orig.Title || b.Body != orig.Body {
		t.Errorf("unexpected title/body %q %q", b.Title, b.Body)
	}
	if !b.GeneratedAt.Equal(genTime) {
		t.Errorf("expected %v, got %v", genTime, b.GeneratedAt)
	}
	if len(b.SourceLinks) != 3 || b.SourceLinks[2] != (SourceLink{Label: "Second", URL: "https://example.org/2"}) {
		t.Errorf("unexpected links %+v", b.SourceLinks)
	}
}

func TestParseRejectsOtherText(t *testing.T) {
	if _, err := Parse("# just markdown\n"); err == nil {
		t.Error("expected error")
	}
}
