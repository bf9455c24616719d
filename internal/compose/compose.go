package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TobiSchelling/wsws-bulletin/internal/collect"
)

// ProductName prefixes the default bulletin title.
const ProductName = "WSWS Daily Bulletin"

const width = 80

var banner = strings.Repeat("=", width)

// SourceLink is one entry of the bulletin's source listing.
type SourceLink struct {
	Label string
	URL   string
}

// Bulletin is a rendered bulletin ready to be written to disk.
type Bulletin struct {
	Title       string
	Body        string
	GeneratedAt time.Time
	SourceLinks []SourceLink
}

// DefaultTitle returns the title used when none is given.
func DefaultTitle(t time.Time) string {
	return fmt.Sprintf("%s - %s", ProductName, t.Format("January 02, 2006"))
}

// Render builds the bulletin for bundle around synthesis. It performs no I/O.
func Render(bundle *collect.ContentBundle, synthesis, title string, now time.Time) *Bulletin {
	if title == "" {
		title = DefaultTitle(now)
	}

	var links []SourceLink
	if p := bundle.Perspective; p != nil {
		links = append(links, SourceLink{Label: "[PERSPECTIVE] " + p.Title, URL: p.URL})
	}
	for _, a := range bundle.Articles {
		links = append(links, SourceLink{Label: a.Title, URL: a.URL})
	}

	return &Bulletin{
		Title:       title,
		Body:        synthesis,
		GeneratedAt: now,
		SourceLinks: links,
	}
}

// Text returns the full bulletin document.
func (b *Bulletin) Text() string {
	lines := []string{
		banner,
		center(b.Title, width),
		banner,
		"",
		b.Body,
		"",
		banner,
		"Generated: " + b.GeneratedAt.Format("2006-01-02 15:04:05"),
		"",
		"Source Articles:",
	}
	for _, l := range b.SourceLinks {
		lines = append(lines, "  • "+l.Label, "    "+l.URL)
	}
	lines = append(lines, banner)
	return strings.Join(lines, "\n")
}

// FileName returns bulletin_<date>.<ext> for the generation date.
func (b *Bulletin) FileName(ext string) string {
	return FileName(b.GeneratedAt, ext)
}

// FileName returns bulletin_<date>.<ext> for t.
func FileName(t time.Time, ext string) string {
	return fmt.Sprintf("bulletin_%s.%s", t.Format("2006-01-02"), ext)
}

// Save writes the bulletin as markdown into dir, creating it if needed,
// and returns the written path.
func Save(b *Bulletin, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, b.FileName("md"))
	if err := os.WriteFile(path, []byte(b.Text()), 0o644); err != nil {
		return "", fmt.Errorf("writing bulletin: %w", err)
	}
	return path, nil
}

// center pads s on both sides to width, putting the odd space on the right.
func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	total := width - n
	left := total / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", total-left)
}

// Parse reads a document produced by Text back into a Bulletin. Text the
// layout does not account for stays in Body.
func Parse(text string) (*Bulletin, error) {
	lines := strings.Split(text, "\n")
	if len(lines) < 4 || lines[0] != banner || lines[2] != banner {
		return nil, fmt.Errorf("not a bulletin document")
	}
	b := &Bulletin{Title: strings.TrimSpace(lines[1])}

	footer := -1
	for i := len(lines) - 2; i > 2; i-- {
		if lines[i] == banner && strings.HasPrefix(lines[i+1], "Generated: ") {
			footer = i
			break
		}
	}
	if footer < 0 {
		return nil, fmt.Errorf("bulletin footer not found")
	}

	b.Body = strings.TrimSuffix(strings.Join(lines[4:footer], "\n"), "\n")
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", strings.TrimPrefix(lines[footer+1], "Generated: "), time.Local); err == nil {
		b.GeneratedAt = t
	}

	for i := footer + 2; i < len(lines); i++ {
		label, ok := strings.CutPrefix(lines[i], "  • ")
		if !ok {
			continue
		}
		link := SourceLink{Label: label}
		if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "    ") {
			link.URL = strings.TrimSpace(lines[i+1])
			i++
		}
		b.SourceLinks = append(b.SourceLinks, link)
	}
	return b, nil
}
