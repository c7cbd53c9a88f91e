// Package site generates a static HTML browser for one run: an index with
// the run report, a page per content type, and a page per file showing its
// analysis and source.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/contentaware/internal/analyze"
	"github.com/TobiSchelling/contentaware/internal/database"
	"github.com/TobiSchelling/contentaware/internal/extract"
	"github.com/TobiSchelling/contentaware/internal/report"
)

// maxSourceBytes caps how much of a file is embedded in its page.
const maxSourceBytes = 64 * 1024

//go:embed templates/layout.html templates/style.css
var assets embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Result summarizes a generated site.
type Result struct {
	Dir   string
	Pages int
	Index string
}

type page struct {
	Title string
	Run   string
	Root  string
	Body  template.HTML
}

// Generator writes static pages for a run.
type Generator struct {
	db     *database.DB
	layout *template.Template
}

// NewGenerator creates a site generator.
func NewGenerator(db *database.DB) (*Generator, error) {
	layout, err := template.ParseFS(assets, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	return &Generator{db: db, layout: layout}, nil
}

// Generate writes the site for runID into dir.
func (g *Generator) Generate(runID, dir string) (*Result, error) {
	rep, err := report.Build(g.db, runID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(dir, "categories"), 0o755); err != nil {
		return nil, fmt.Errorf("creating site directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "files"), 0o755); err != nil {
		return nil, fmt.Errorf("creating site directory: %w", err)
	}

	css, err := assets.ReadFile("templates/style.css")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, "style.css"), css, 0o644); err != nil {
		return nil, err
	}

	r := &Result{Dir: dir}

	byType := make(map[string][]database.FileAnalysis)
	for _, fa := range rep.Analyses {
		byType[fa.ContentType] = append(byType[fa.ContentType], fa)
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	var index strings.Builder
	index.WriteString("## Browse\n\n")
	for _, t := range types {
		fmt.Fprintf(&index, "- [%s](categories/%s.html) (%d files)\n", t, slug(t), len(byType[t]))
	}
	index.WriteString("\n")
	index.WriteString(rep.Markdown())

	r.Index = filepath.Join(dir, "index.html")
	if err := g.writePage(r.Index, "Content Analysis", runID, "", index.String()); err != nil {
		return nil, err
	}
	r.Pages++

	for _, t := range types {
		var sb strings.Builder
		fmt.Fprintf(&sb, "# %s\n\n| File | Language | Purpose | Confidence | Complexity |\n|---|---|---|---|---|\n", t)
		for _, fa := range byType[t] {
			fmt.Fprintf(&sb, "| [%s](../files/%s) | %s | %s | %.0f%% | %.2f |\n",
				escapeCell(displayName(fa)), filePage(fa), fa.Language, fa.Purpose, fa.Confidence*100, fa.ComplexityScore)
		}
		path := filepath.Join(dir, "categories", slug(t)+".html")
		if err := g.writePage(path, t, runID, "../", sb.String()); err != nil {
			return nil, err
		}
		r.Pages++
	}

	for _, fa := range rep.Analyses {
		path := filepath.Join(dir, "files", filePage(fa))
		if err := g.writePage(path, displayName(fa), runID, "../", fileMarkdown(fa)); err != nil {
			log.Printf("Error writing page for %s: %v", fa.Path, err)
			continue
		}
		r.Pages++
	}

	return r, nil
}

func (g *Generator) writePage(path, title, runID, root, markdown string) error {
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}

	var out bytes.Buffer
	err := g.layout.Execute(&out, page{
		Title: title,
		Run:   runID,
		Root:  root,
		Body:  template.HTML(body.String()), //nolint: gosec
	})
	if err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return os.WriteFile(path, out.Bytes(), 0o644)
}

func fileMarkdown(fa database.FileAnalysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", displayName(fa))
	fmt.Fprintf(&sb, "[%s](../categories/%s.html)\n\n", fa.ContentType, slug(fa.ContentType))
	fmt.Fprintf(&sb, "| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Path | `%s` |\n", escapeCell(fa.Path))
	fmt.Fprintf(&sb, "| Content type | %s (%.0f%%) |\n", fa.ContentType, fa.Confidence*100)
	fmt.Fprintf(&sb, "| Purpose | %s |\n", fa.Purpose)
	fmt.Fprintf(&sb, "| Language | %s |\n", fa.Language)
	fmt.Fprintf(&sb, "| Complexity | %.2f (%s) |\n", fa.ComplexityScore, fa.Scorer)
	fmt.Fprintf(&sb, "| Size | %d bytes |\n", fa.Size)
	if len(fa.Tags) > 0 {
		fmt.Fprintf(&sb, "| Tags | %s |\n", escapeCell(strings.Join(fa.Tags, ", ")))
	}
	if len(fa.Patterns) > 0 {
		fmt.Fprintf(&sb, "| Patterns | %s |\n", strings.Join(fa.Patterns, ", "))
	}
	if fa.Summary != "" {
		fmt.Fprintf(&sb, "\n%s\n", fa.Summary)
	}
	if len(fa.Recommendations) > 0 {
		sb.WriteString("\n## Recommendations\n\n")
		for _, rec := range fa.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", rec)
		}
	}

	if src := source(fa); src != "" {
		lang := ""
		if fa.Kind == extract.KindCode {
			lang = fa.Language
		}
		fence := fenceFor(src)
		fmt.Fprintf(&sb, "\n## Source\n\n%s%s\n%s\n%s\n", fence, lang, strings.TrimRight(src, "\n"), fence)
	}
	return sb.String()
}

// source reads the file for display. Binary and extracted kinds are not
// shown, nor are files whose content changed since the analysis.
func source(fa database.FileAnalysis) string {
	switch fa.Kind {
	case extract.KindText, extract.KindCode, extract.KindTabular:
	default:
		return ""
	}
	data, err := os.ReadFile(fa.Path)
	if err != nil {
		return ""
	}
	if analyze.HashBytes(data) != fa.ContentHash {
		return ""
	}
	if len(data) > maxSourceBytes {
		data = append(data[:maxSourceBytes], []byte("\n...")...)
	}
	return string(data)
}

func fenceFor(src string) string {
	longest, run := 0, 0
	for _, c := range src {
		if c == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	n := 3
	if longest >= n {
		n = longest + 1
	}
	return strings.Repeat("`", n)
}

func filePage(fa database.FileAnalysis) string {
	return analyze.HashBytes([]byte(fa.Path))[:12] + "-" + slug(filepath.Base(fa.Path)) + ".html"
}

func displayName(fa database.FileAnalysis) string {
	if fa.RelPath != "" {
		return filepath.ToSlash(fa.RelPath)
	}
	return fa.Path
}

func slug(s string) string {
	var sb strings.Builder
	for _, c := range strings.ToLower(s) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-', c == '.':
			sb.WriteRune(c)
		default:
			sb.WriteRune('-')
		}
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
