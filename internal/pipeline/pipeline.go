// Package pipeline runs the full analysis workflow over one directory:
// scan, cluster, report and organize.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/TobiSchelling/contentaware/internal/analyze"
	"github.com/TobiSchelling/contentaware/internal/classify"
	"github.com/TobiSchelling/contentaware/internal/cluster"
	"github.com/TobiSchelling/contentaware/internal/config"
	"github.com/TobiSchelling/contentaware/internal/database"
	"github.com/TobiSchelling/contentaware/internal/llm"
	"github.com/TobiSchelling/contentaware/internal/organize"
	"github.com/TobiSchelling/contentaware/internal/report"
	"github.com/TobiSchelling/contentaware/internal/scan"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID string
	Root  string
	Steps []StepResult
}

// Failed reports whether any step returned an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Pipeline orchestrates the 4-step analysis pipeline.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	analyzer *analyze.Analyzer
	embedder llm.Embedder
}

// New creates a pipeline, selecting the classifier and optional embedder
// from the configuration.
func New(cfg *config.Config, db *database.DB) (*Pipeline, error) {
	classifier, err := SelectClassifier(cfg)
	if err != nil {
		return nil, err
	}
	return NewWith(cfg, db, classifier, Embedder(cfg)), nil
}

// SelectClassifier picks the classifier for this process. No provider is
// probed in heuristic mode.
func SelectClassifier(cfg *config.Config) (classify.Classifier, error) {
	var provider llm.Provider
	if cfg.Classifier.Mode != "heuristic" {
		provider = llm.CreateProvider(cfg.Classifier)
	}
	return classify.Select(cfg.Classifier, provider)
}

// Embedder returns the configured embedder, or nil when clustering uses
// keyword overlap.
func Embedder(cfg *config.Config) llm.Embedder {
	if !cfg.Cluster.UseEmbeddings {
		return nil
	}
	return llm.NewOllamaEmbedder(cfg.Classifier.EmbeddingModel, cfg.Classifier.OllamaURL)
}

// NewWith creates a pipeline around an already selected classifier. A nil
// embedder clusters by keyword overlap.
func NewWith(cfg *config.Config, db *database.DB, classifier classify.Classifier, embedder llm.Embedder) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		db:       db,
		analyzer: analyze.New(db, classifier),
		embedder: embedder,
	}
}

// Run executes the full pipeline. Files are only moved when apply is set.
func (p *Pipeline) Run(ctx context.Context, root string, apply bool) *Result {
	r := &Result{Root: root}

	// Step 1: Scan
	step, scanned := p.runScan(ctx, root)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}
	r.RunID = scanned.RunID
	r.Root = scanned.Root

	// Step 2: Cluster
	step = p.runCluster(ctx, scanned.RunID)
	r.Steps = append(r.Steps, step)

	// Step 3: Report
	step = p.runReport(scanned.RunID)
	r.Steps = append(r.Steps, step)

	// Step 4: Organize
	step = p.runOrganize(scanned, apply)
	r.Steps = append(r.Steps, step)

	return r
}

// DryRun shows what would be done without analyzing or moving anything.
func (p *Pipeline) DryRun(root string) *Result {
	r := &Result{Root: root}

	abs, err := filepath.Abs(config.ExpandHome(root))
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Scan", Err: err})
		return r
	}
	r.Root = abs

	paths, skipped, err := scan.Walk(abs, p.scanOptions())
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Scan", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Scan",
		Summary: fmt.Sprintf("[dry-run] %d files to analyze with %s (%d skipped)", len(paths), p.analyzer.Classifier().Name(), skipped),
	})

	method := "keyword overlap"
	if p.embedder != nil {
		method = "embeddings"
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Cluster",
		Summary: fmt.Sprintf("[dry-run] Would cluster %d files by %s", len(paths), method),
	})

	r.Steps = append(r.Steps, StepResult{
		Name:    "Report",
		Summary: fmt.Sprintf("[dry-run] Would write report to %s", p.cfg.ReportsDir()),
	})

	r.Steps = append(r.Steps, StepResult{
		Name:    "Organize",
		Summary: fmt.Sprintf("[dry-run] Would plan moves into %s", p.destination(abs)),
	})

	return r
}

func (p *Pipeline) scanOptions() scan.Options {
	opts := scan.OptionsFromConfig(p.cfg.Scan)
	opts.SkipDirs = []string{p.cfg.GetDataDir()}
	if dest := config.ExpandHome(p.cfg.Organize.Destination); dest != "" {
		opts.SkipDirs = append(opts.SkipDirs, dest)
	}
	return opts
}

func (p *Pipeline) destination(root string) string {
	if dest := config.ExpandHome(p.cfg.Organize.Destination); dest != "" {
		return dest
	}
	return root
}

func (p *Pipeline) runScan(ctx context.Context, root string) (StepResult, *scan.Result) {
	log.Println("Step 1/4: Scanning files...")
	scanner := scan.NewScanner(p.db, p.analyzer, p.scanOptions())
	result, err := scanner.Scan(ctx, root)
	if err != nil {
		return StepResult{Name: "Scan", Err: err}, nil
	}
	return StepResult{
		Name: "Scan",
		Summary: fmt.Sprintf("Analyzed %d files (%d from cache, %d skipped, %d errors)",
			result.Analyzed, result.CacheHits, result.Skipped, result.Errors),
	}, result
}

func (p *Pipeline) runCluster(ctx context.Context, runID string) StepResult {
	log.Println("Step 2/4: Clustering files...")
	clusterer := cluster.NewClusterer(p.db, p.embedder, p.cfg.Cluster.MinOverlap, p.cfg.Cluster.DistanceThreshold)
	result, err := clusterer.ClusterRun(ctx, runID)
	if err != nil {
		return StepResult{Name: "Cluster", Err: err}
	}
	return StepResult{
		Name:    "Cluster",
		Summary: fmt.Sprintf("Created %d clusters from %d files (%d unclustered)", result.ClusterCount, result.FileCount, result.UnclusteredCount),
	}
}

func (p *Pipeline) runReport(runID string) StepResult {
	log.Println("Step 3/4: Writing report...")
	rep, err := report.Build(p.db, runID)
	if err != nil {
		return StepResult{Name: "Report", Err: err}
	}
	mdPath, _, err := rep.Write(p.cfg.ReportsDir())
	if err != nil {
		return StepResult{Name: "Report", Err: err}
	}
	return StepResult{
		Name:    "Report",
		Summary: fmt.Sprintf("Report written to %s", mdPath),
	}
}

func (p *Pipeline) runOrganize(scanned *scan.Result, apply bool) StepResult {
	log.Println("Step 4/4: Organizing files...")
	opts := organize.OptionsFromConfig(p.cfg.Organize, p.cfg.BackupsDir())
	opts.Apply = apply

	plan := organize.BuildPlan(scanned.RunID, scanned.Root, scanned.Analyses, opts)
	result, err := organize.NewOrganizer(p.db, opts).Execute(plan)
	if err != nil {
		return StepResult{Name: "Organize", Err: err}
	}

	if result.DryRun {
		return StepResult{
			Name: "Organize",
			Summary: fmt.Sprintf("Planned %d moves, %d skipped, %d kept in place (dry run, use --apply to move)",
				result.Planned, result.Skipped, result.Kept),
		}
	}
	return StepResult{
		Name: "Organize",
		Summary: fmt.Sprintf("Moved %d files, %d skipped, %d failed, %d kept in place",
			result.Moved, result.Skipped, result.Failed, result.Kept),
	}
}
