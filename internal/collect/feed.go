package collect

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/wsws-bulletin/internal/fetch"
)

// ArticleSummary is one feed item that passed validation.
type ArticleSummary struct {
	Title         string
	URL           string
	PublishedDate string // YYYY-MM-DD
	Published     time.Time
	Description   string
}

// ParseWarning describes a feed item skipped because its publish date
// could not be parsed. It is logged, never returned.
type ParseWarning struct {
	Title string
	Date  string
}

func (w ParseWarning) Error() string {
	return fmt.Sprintf("could not parse date %q for article: %s", w.Date, w.Title)
}

// FeedFetcher reads the site feed and selects recent and featured items.
type FeedFetcher struct {
	feedURL string
	marker  string
	getter  fetch.Getter
	now     func() time.Time
}

// NewFeedFetcher creates a new FeedFetcher. Items whose link contains
// marker are treated as featured.
func NewFeedFetcher(feedURL, marker string, getter fetch.Getter) *FeedFetcher {
	return &FeedFetcher{feedURL: feedURL, marker: marker, getter: getter, now: time.Now}
}

// FetchRecent returns the items published within the last hours, in feed order.
func (f *FeedFetcher) FetchRecent(ctx context.Context, hours int) ([]ArticleSummary, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("hours must be a positive integer, got %d", hours)
	}
	log.Printf("Fetching recent articles from last %d hours...", hours)
	feed, err := f.load(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := f.now().Add(-time.Duration(hours) * time.Hour)
	var articles []ArticleSummary
	for _, item := range feed.Items {
		summary, ok := parseItem(item)
		if !ok {
			continue
		}
		if !summary.Published.Before(cutoff) {
			articles = append(articles, *summary)
		}
	}

	log.Printf("Found %d articles from last %d hours", len(articles), hours)
	return articles, nil
}

// FetchFeaturedItem returns the first item whose link contains the featured
// marker, or nil when there is none.
func (f *FeedFetcher) FetchFeaturedItem(ctx context.Context) (*ArticleSummary, error) {
	log.Println("Fetching latest perspective article...")
	feed, err := f.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" || !strings.Contains(link, f.marker) {
			continue
		}

		summary := &ArticleSummary{Title: title, URL: link, Description: item.Description}
		if item.PublishedParsed != nil {
			summary.Published = *item.PublishedParsed
			summary.PublishedDate = item.PublishedParsed.Format("2006-01-02")
		}
		log.Printf("Found perspective: %s", title)
		return summary, nil
	}

	log.Println("No perspective article found")
	return nil, nil
}

func (f *FeedFetcher) load(ctx context.Context) (*gofeed.Feed, error) {
	body, err := f.getter.Get(ctx, f.feedURL)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", f.feedURL, err)
	}
	return feed, nil
}

// parseItem validates a feed item. Items without title, link or publish
// date are skipped silently; an unparseable date is skipped with a warning.
func parseItem(item *gofeed.Item) (*ArticleSummary, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	published := strings.TrimSpace(item.Published)
	if title == "" || link == "" || published == "" {
		return nil, false
	}

	if item.PublishedParsed == nil {
		log.Printf("Warning: %v", ParseWarning{Title: title, Date: published})
		return nil, false
	}

	return &ArticleSummary{
		Title:         title,
		URL:           link,
		PublishedDate: item.PublishedParsed.Format("2006-01-02"),
		Published:     *item.PublishedParsed,
		Description:   item.Description,
	}, true
}
