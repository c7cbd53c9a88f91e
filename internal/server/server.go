package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/contentaware/internal/database"
	"github.com/TobiSchelling/contentaware/internal/organize"
	"github.com/TobiSchelling/contentaware/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Server is the HTTP server for browsing runs and analyses.
type Server struct {
	db       *database.DB
	organize organize.Options
	pages    map[string]*template.Template
	router   *chi.Mux
}

// New creates a new Server. opts are used to preview the organization of a
// run; Apply is ignored.
func New(db *database.DB, opts organize.Options) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"percent":  func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
		"score":    func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "run.html", "category.html", "file.html", "document.html"}
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

	opts.Apply = false
	s := &Server{db: db, organize: opts, pages: pages, router: chi.NewRouter()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)

	staticSub, _ := fs.Sub(staticFS, "static")
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.router.Get("/", s.handleIndex)
	s.router.Route("/runs/{id}", func(r chi.Router) {
		r.Get("/", s.handleRun)
		r.Get("/report", s.handleReport)
		r.Get("/organization", s.handleOrganization)
		r.Get("/categories/{category}", s.handleCategory)
	})
	s.router.Get("/file", s.handleFile)
	s.router.Get("/api/runs/{id}", s.handleRunJSON)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.GetRuns(0)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stats, err := s.db.GetStats()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Runs":  runs,
		"Stats": stats,
	})
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) *database.Run {
	run, err := s.db.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil
	}
	if run == nil {
		http.NotFound(w, r)
		return nil
	}
	return run
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}

	categories, _ := s.db.GetCategoryCounts(run.ID)
	clusters, _ := s.db.GetClustersForRun(run.ID)
	moves, _ := s.db.GetMovesForRun(run.ID)

	s.render(w, "run.html", map[string]any{
		"Run":        run,
		"Categories": categories,
		"Clusters":   clusters,
		"Moves":      moves,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}
	rep, err := report.Build(s.db, run.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "document.html", map[string]any{
		"Title": "Report",
		"Run":   run,
		"Body":  rep.Markdown(),
	})
}

func (s *Server) handleOrganization(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}
	analyses, err := s.db.GetAnalysesForRun(run.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	plan := organize.BuildPlan(run.ID, run.Root, analyses, s.organize)
	s.render(w, "document.html", map[string]any{
		"Title": "Organization",
		"Run":   run,
		"Body":  organize.Navigation(plan, time.Now()),
	})
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}
	category := chi.URLParam(r, "category")

	analyses, err := s.db.GetAnalysesForRun(run.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	var files []database.FileAnalysis
	for _, fa := range analyses {
		if fa.ContentType == category {
			files = append(files, fa)
		}
	}

	s.render(w, "category.html", map[string]any{
		"Run":      run,
		"Category": category,
		"Files":    files,
	})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	rec, err := s.db.GetFile(path)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.NotFound(w, r)
		return
	}
	analysis, _ := s.db.GetInsight(rec.ContentHash)

	s.render(w, "file.html", map[string]any{
		"File":     rec,
		"Analysis": analysis,
	})
}

func (s *Server) handleRunJSON(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}
	rep, err := report.Build(s.db, run.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	data, err := rep.JSON()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, opts organize.Options, port int) error {
	srv, err := New(db, opts)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
