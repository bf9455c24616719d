package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/wsws-bulletin/internal/compose"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

var (
	bulletinFile = regexp.MustCompile(`^bulletin_(\d{4}-\d{2}-\d{2})\.md$`)
	audioFile    = regexp.MustCompile(`^bulletin_\d{4}-\d{2}-\d{2}\.(wav|mp3)$`)
	audioExts    = []string{"mp3", "wav"}
)

// Entry is one bulletin found in the output directory.
type Entry struct {
	Date  string
	Audio string
}

// Server serves the bulletins in an output directory.
type Server struct {
	dir   string
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server over dir.
func New(dir string) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so its "content" block stays separate.
	pageNames := []string{"index.html", "bulletin.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{dir: dir, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/bulletin/", s.handleBulletin)
	s.mux.HandleFunc("/audio/", s.handleAudio)
}

// List returns the bulletins in the output directory, newest first.
func (s *Server) List() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, f := range files {
		m := bulletinFile.FindStringSubmatch(f.Name())
		if m == nil || f.IsDir() {
			continue
		}
		entries = append(entries, Entry{Date: m[1], Audio: s.audioFor(m[1])})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date > entries[j].Date })
	return entries, nil
}

func (s *Server) audioFor(date string) string {
	for _, ext := range audioExts {
		name := fmt.Sprintf("bulletin_%s.%s", date, ext)
		if _, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			return name
		}
	}
	return ""
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	entries, err := s.List()
	if err != nil {
		log.Printf("Error listing bulletins: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Entries": entries,
		"Dir":     s.dir,
	})
}

func (s *Server) handleBulletin(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimPrefix(r.URL.Path, "/bulletin/")
	if date == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	name := fmt.Sprintf("bulletin_%s.md", date)
	if !bulletinFile.MatchString(name) {
		http.NotFound(w, r)
		return
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	b, err := compose.Parse(string(data))
	if err != nil {
		// Not written by this tool; show it as plain markdown.
		b = &compose.Bulletin{Title: name, Body: string(data)}
	}

	s.render(w, "bulletin.html", map[string]any{
		"Bulletin": b,
		"Date":     date,
		"Audio":    s.audioFor(date),
	})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/audio/")
	if !audioFile.MatchString(name) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.dir, name))
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server for dir on the given port.
func Serve(dir string, port int) error {
	srv, err := New(dir)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
