package synthesize

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/wsws-bulletin/internal/collect"
	"github.com/TobiSchelling/wsws-bulletin/internal/fetch"
)

// FormatBundle renders the bundle as prompt text: the perspective first,
// then the numbered recent articles. Empty sections are omitted.
func FormatBundle(bundle *collect.ContentBundle) string {
	var b strings.Builder

	if p := bundle.Perspective; p != nil {
		b.WriteString("=== PERSPECTIVE (FEATURED ANALYSIS) ===\n")
		writeArticle(&b, p)
	}

	if len(bundle.Articles) > 0 {
		fmt.Fprintf(&b, "=== RECENT ARTICLES (%d articles) ===\n\n", len(bundle.Articles))
		for i := range bundle.Articles {
			fmt.Fprintf(&b, "--- Article %d ---\n", i+1)
			writeArticle(&b, &bundle.Articles[i])
		}
	}

	return b.String()
}

func writeArticle(b *strings.Builder, a *fetch.ArticleContent) {
	fmt.Fprintf(b, "Title: %s\n", a.Title)
	fmt.Fprintf(b, "Author: %s\n", a.Author)
	fmt.Fprintf(b, "Date: %s\n", a.Date)
	fmt.Fprintf(b, "URL: %s\n\n", a.URL)
	fmt.Fprintf(b, "%s\n\n", a.Text)
}

// BuildPrompt wraps the formatted bundle in the analysis instructions.
func BuildPrompt(bundle *collect.ContentBundle) string {
	return fmt.Sprintf(userPrompt, FormatBundle(bundle))
}
