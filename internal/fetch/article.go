package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	unknownTitle = "Unknown Title"
	unknown      = "Unknown"
)

// Ordered selector lists; the first match wins.
var (
	bodySelectors   = []string{"div.article-content", "article"}
	authorSelectors = []string{"span.author", "a[rel~=author]"}
	dateSelectors   = []string{"time", "span.date"}
)

// ArticleContent is the full text and metadata scraped from one article page.
type ArticleContent struct {
	Title  string
	Author string
	Date   string // free-form, as printed on the page
	Text   string
	URL    string
}

// Getter fetches a URL body.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Extractor fetches article pages and pulls title, author, date and body
// text out of them. Selector misses fall back to placeholders.
type Extractor struct {
	getter              Getter
	readabilityFallback bool
}

// NewExtractor creates a new article extractor.
func NewExtractor(getter Getter, readabilityFallback bool) *Extractor {
	return &Extractor{getter: getter, readabilityFallback: readabilityFallback}
}

// Extract fetches url and extracts its content. Only fetch failures are
// returned as errors.
func (e *Extractor) Extract(ctx context.Context, articleURL string) (*ArticleContent, error) {
	body, err := e.getter.Get(ctx, articleURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", articleURL, err)
	}

	content := &ArticleContent{
		Title:  unknownTitle,
		Author: firstText(doc, authorSelectors, unknown),
		Date:   firstText(doc, dateSelectors, unknown),
		URL:    articleURL,
	}
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		content.Title = cleanText(h1.Text())
	}

	container := firstMatch(doc, bodySelectors)
	switch {
	case container != nil:
		content.Text = paragraphText(container)
	case e.readabilityFallback:
		content.Text = readabilityText(body, articleURL)
	default:
		log.Printf("No content container found in %s", articleURL)
	}

	return content, nil
}

func firstMatch(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

func firstText(doc *goquery.Document, selectors []string, fallback string) string {
	if s := firstMatch(doc, selectors); s != nil {
		return cleanText(s.Text())
	}
	return fallback
}

func paragraphText(container *goquery.Selection) string {
	container.Find("script, style").Remove()

	var paragraphs []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := cleanText(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n\n")
}

func readabilityText(body []byte, articleURL string) string {
	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		log.Printf("Readability extraction failed for %s: %v", articleURL, err)
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

// cleanText collapses internal whitespace runs and trims the ends.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
