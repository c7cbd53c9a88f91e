// Package report renders run summaries as Markdown and JSON.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/TobiSchelling/contentaware/internal/database"
)

const topComplex = 10

// Count is a named tally.
type Count struct {
	Name  string `json:"name"`
	Files int    `json:"files"`
}

// ClusterSummary is a cluster as it appears in a report.
type ClusterSummary struct {
	Label       string   `json:"label"`
	ContentType string   `json:"content_type"`
	Keywords    []string `json:"keywords,omitempty"`
	Files       []string `json:"files"`
}

// Report is the data behind both report formats.
type Report struct {
	RunID           string                  `json:"run_id"`
	Root            string                  `json:"root"`
	GeneratedAt     time.Time               `json:"generated_at"`
	Files           int                     `json:"files"`
	CacheHits       int                     `json:"cache_hits"`
	Errors          int                     `json:"errors"`
	AvgConfidence   float64                 `json:"avg_confidence"`
	AvgComplexity   float64                 `json:"avg_complexity"`
	Categories      []Count                 `json:"categories"`
	Languages       []Count                 `json:"languages"`
	Purposes        []Count                 `json:"purposes"`
	Patterns        []Count                 `json:"patterns"`
	MostComplex     []database.FileAnalysis `json:"most_complex"`
	Clusters        []ClusterSummary        `json:"clusters,omitempty"`
	Recommendations []Count                 `json:"recommendations,omitempty"`
	Analyses        []database.FileAnalysis `json:"analyses"`
}

// Build assembles a report for a run from the database.
func Build(db *database.DB, runID string) (*Report, error) {
	run, err := db.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run %s not found", runID)
	}

	analyses, err := db.GetAnalysesForRun(runID)
	if err != nil {
		return nil, err
	}

	clusters, err := db.GetClustersForRun(runID)
	if err != nil {
		return nil, err
	}
	var summaries []ClusterSummary
	for _, c := range clusters {
		files, err := db.GetClusterFiles(c.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ClusterSummary{
			Label:       c.Label,
			ContentType: c.ContentType,
			Keywords:    c.Keywords,
			Files:       files,
		})
	}

	r := FromAnalyses(analyses, time.Now().UTC())
	r.RunID = run.ID
	r.Root = run.Root
	r.CacheHits = run.CacheHits
	r.Errors = run.Errors
	r.Clusters = summaries
	return r, nil
}

// FromAnalyses computes the aggregate sections of a report.
func FromAnalyses(analyses []database.FileAnalysis, generated time.Time) *Report {
	r := &Report{GeneratedAt: generated, Files: len(analyses), Analyses: analyses}
	if len(analyses) == 0 {
		return r
	}

	categories := make(map[string]int)
	languages := make(map[string]int)
	purposes := make(map[string]int)
	patterns := make(map[string]int)
	recs := make(map[string]int)
	var confSum, cxSum float64

	for _, fa := range analyses {
		categories[fa.ContentType]++
		languages[fa.Language]++
		purposes[fa.Purpose]++
		for _, p := range fa.Patterns {
			patterns[p]++
		}
		for _, rec := range fa.Recommendations {
			recs[rec]++
		}
		confSum += fa.Confidence
		cxSum += fa.ComplexityScore
	}

	n := float64(len(analyses))
	r.AvgConfidence = confSum / n
	r.AvgComplexity = cxSum / n
	r.Categories = sortedCounts(categories)
	r.Languages = sortedCounts(languages)
	r.Purposes = sortedCounts(purposes)
	r.Patterns = sortedCounts(patterns)
	r.Recommendations = sortedCounts(recs)

	ranked := make([]database.FileAnalysis, len(analyses))
	copy(ranked, analyses)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ComplexityScore != ranked[j].ComplexityScore {
			return ranked[i].ComplexityScore > ranked[j].ComplexityScore
		}
		return ranked[i].Path < ranked[j].Path
	})
	if len(ranked) > topComplex {
		ranked = ranked[:topComplex]
	}
	r.MostComplex = ranked
	return r
}

func sortedCounts(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for name, n := range m {
		if name == "" {
			name = "unknown"
		}
		counts = append(counts, Count{Name: name, Files: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Files != counts[j].Files {
			return counts[i].Files > counts[j].Files
		}
		return counts[i].Name < counts[j].Name
	})
	return counts
}

// Markdown renders the report.
func (r *Report) Markdown() string {
	var sections []string

	header := fmt.Sprintf("# Content Analysis Report\n\n"+
		"- **Root:** `%s`\n- **Run:** `%s`\n- **Generated:** %s\n- **Files analyzed:** %d (%d from cache, %d errors)\n"+
		"- **Average confidence:** %.2f\n- **Average complexity:** %.2f",
		r.Root, r.RunID, r.GeneratedAt.Format("2006-01-02 15:04"), r.Files, r.CacheHits, r.Errors,
		r.AvgConfidence, r.AvgComplexity)
	sections = append(sections, header)

	if len(r.Categories) > 0 {
		sections = append(sections, countTable("Content Types", "Type", r.Categories, r.Files))
	}
	if len(r.Languages) > 0 {
		sections = append(sections, countTable("Languages", "Language", r.Languages, r.Files))
	}
	if len(r.Purposes) > 0 {
		sections = append(sections, countTable("Purposes", "Purpose", r.Purposes, r.Files))
	}
	if len(r.Patterns) > 0 {
		sections = append(sections, countTable("Code Patterns", "Pattern", r.Patterns, r.Files))
	}

	if len(r.MostComplex) > 0 {
		lines := []string{"## Most Complex Files", "", "| File | Type | Language | Complexity |", "|---|---|---|---|"}
		for _, fa := range r.MostComplex {
			lines = append(lines, fmt.Sprintf("| `%s` | %s | %s | %.2f |", display(fa), fa.ContentType, fa.Language, fa.ComplexityScore))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(r.Clusters) > 0 {
		lines := []string{"## Content Clusters"}
		for _, c := range r.Clusters {
			lines = append(lines, "", fmt.Sprintf("### %s (%d files)", c.Label, len(c.Files)))
			if len(c.Keywords) > 0 {
				lines = append(lines, "", "Keywords: "+strings.Join(c.Keywords, ", "))
			}
			lines = append(lines, "")
			for _, f := range c.Files {
				lines = append(lines, fmt.Sprintf("- `%s`", relTo(r.Root, f)))
			}
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(r.Recommendations) > 0 {
		lines := []string{"## Recommendations", ""}
		for _, rec := range r.Recommendations {
			lines = append(lines, fmt.Sprintf("- %s (%d files)", rec.Name, rec.Files))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n\n") + "\n"
}

func countTable(title, column string, counts []Count, total int) string {
	lines := []string{"## " + title, "", fmt.Sprintf("| %s | Files | Share |", column), "|---|---|---|"}
	for _, c := range counts {
		lines = append(lines, fmt.Sprintf("| %s | %d | %.0f%% |", c.Name, c.Files, 100*float64(c.Files)/float64(total)))
	}
	return strings.Join(lines, "\n")
}

func display(fa database.FileAnalysis) string {
	if fa.RelPath != "" {
		return filepath.ToSlash(fa.RelPath)
	}
	return fa.Path
}

func relTo(root, path string) string {
	if root == "" {
		return path
	}
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Write stores report_<run>.md and report_<run>.json in dir and returns
// both paths.
func (r *Report) Write(dir string) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	prefix := "report"
	if r.RunID != "" {
		prefix += "_" + r.RunID
	}

	mdPath := filepath.Join(dir, prefix+".md")
	if err := os.WriteFile(mdPath, []byte(r.Markdown()), 0o644); err != nil {
		return "", "", err
	}

	data, err := r.JSON()
	if err != nil {
		return "", "", err
	}
	jsonPath := filepath.Join(dir, prefix+".json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", err
	}
	return mdPath, jsonPath, nil
}
