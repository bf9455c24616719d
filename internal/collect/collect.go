package collect

import (
	"context"
	"log"

	"github.com/TobiSchelling/wsws-bulletin/internal/fetch"
)

// ContentBundle is everything passed to synthesis for one run.
type ContentBundle struct {
	Articles    []fetch.ArticleContent
	Perspective *fetch.ArticleContent
}

// IsEmpty reports whether there is nothing to synthesize.
func (b *ContentBundle) IsEmpty() bool {
	return b == nil || (len(b.Articles) == 0 && b.Perspective == nil)
}

// Extractor pulls full content from an article page.
type Extractor interface {
	Extract(ctx context.Context, url string) (*fetch.ArticleContent, error)
}

// Collector fetches the feed and the full text of every selected article.
type Collector struct {
	feed            *FeedFetcher
	extractor       Extractor
	excludeFeatured bool
}

// NewCollector creates a new Collector. With excludeFeatured the featured
// item is removed from the plain article list.
func NewCollector(feed *FeedFetcher, extractor Extractor, excludeFeatured bool) *Collector {
	return &Collector{feed: feed, extractor: extractor, excludeFeatured: excludeFeatured}
}

// FetchAll builds the content bundle for articles published within hours.
// Fetches run sequentially in feed order and the first failure aborts.
func (c *Collector) FetchAll(ctx context.Context, hours int) (*ContentBundle, error) {
	bundle := &ContentBundle{}

	recent, err := c.feed.FetchRecent(ctx, hours)
	if err != nil {
		return nil, err
	}

	featured, err := c.feed.FetchFeaturedItem(ctx)
	if err != nil {
		return nil, err
	}

	if featured != nil {
		recent = c.handleFeaturedDuplicate(recent, featured.URL)
	}

	log.Printf("Fetching content for %d recent articles...", len(recent))
	for i, meta := range recent {
		log.Printf("[%d/%d] %s", i+1, len(recent), truncate(meta.Title, 60))
		content, err := c.extractor.Extract(ctx, meta.URL)
		if err != nil {
			return nil, err
		}
		bundle.Articles = append(bundle.Articles, *content)
	}

	if featured != nil {
		log.Println("Fetching perspective content...")
		content, err := c.extractor.Extract(ctx, featured.URL)
		if err != nil {
			return nil, err
		}
		bundle.Perspective = content
	}

	return bundle, nil
}

func (c *Collector) handleFeaturedDuplicate(recent []ArticleSummary, featuredURL string) []ArticleSummary {
	var kept []ArticleSummary
	dup := false
	for _, a := range recent {
		if a.URL == featuredURL {
			dup = true
			if c.excludeFeatured {
				continue
			}
		}
		kept = append(kept, a)
	}

	if dup && c.excludeFeatured {
		log.Printf("Perspective %s removed from recent articles", featuredURL)
	} else if dup {
		log.Printf("Perspective %s also listed among recent articles", featuredURL)
	}
	return kept
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
