// Package analyze produces a FileAnalysis for one file: hash, cache lookup,
// text extraction, classification and complexity scoring.
package analyze

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TobiSchelling/contentaware/internal/classify"
	"github.com/TobiSchelling/contentaware/internal/complexity"
	"github.com/TobiSchelling/contentaware/internal/database"
	"github.com/TobiSchelling/contentaware/internal/extract"
)

// Analyzer analyzes files and caches the results by content hash.
type Analyzer struct {
	db         *database.DB
	classifier classify.Classifier
	now        func() time.Time
}

// New creates an analyzer. db may be nil, in which case nothing is cached.
func New(db *database.DB, classifier classify.Classifier) *Analyzer {
	return &Analyzer{db: db, classifier: classifier, now: time.Now}
}

// Classifier returns the classifier chosen at startup.
func (a *Analyzer) Classifier() classify.Classifier {
	return a.classifier
}

// HashBytes returns the MD5 hex digest used as the cache key.
func HashBytes(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// AnalyzeFile reads and analyzes the file at path. root is used to compute
// RelPath and may be empty. The boolean reports a cache hit.
func (a *Analyzer) AnalyzeFile(ctx context.Context, root, path string) (*database.FileAnalysis, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", path, err)
	}
	fa, hit, err := a.Analyze(ctx, path, data)
	if err != nil {
		return nil, false, err
	}
	fa.RelPath = relPath(root, path)
	return fa, hit, nil
}

// Analyze analyzes data as the contents of path. A cached analysis for the
// same bytes is returned with only its location fields updated.
func (a *Analyzer) Analyze(ctx context.Context, path string, data []byte) (*database.FileAnalysis, bool, error) {
	hash := HashBytes(data)

	if a.db != nil {
		cached, err := a.db.GetInsight(hash)
		if err != nil {
			log.Printf("Cache lookup failed for %s: %v", path, err)
		} else if cached != nil {
			cached.Path = path
			cached.RelPath = ""
			return cached, true, nil
		}
	}

	ex, err := extract.Extract(path, data)
	if err != nil {
		// Classify by name alone.
		log.Printf("Extraction failed, classifying by path: %v", err)
	}

	verdict, err := a.classifier.Classify(ctx, classify.Document{
		Path:     path,
		Content:  ex.Text,
		Language: ex.Language,
	})
	if err != nil {
		return nil, false, fmt.Errorf("classifying %s: %w", path, err)
	}

	report := score(ex)

	summary := verdict.Summary
	if summary == "" {
		summary = ex.Title
	}

	fa := &database.FileAnalysis{
		SchemaVersion:   database.SchemaVersion,
		Path:            path,
		ContentHash:     hash,
		Size:            int64(len(data)),
		Extension:       strings.ToLower(filepath.Ext(path)),
		Kind:            ex.Kind,
		ContentType:     verdict.ContentType,
		Confidence:      verdict.Confidence,
		Language:        ex.Language,
		Purpose:         verdict.Purpose,
		ComplexityScore: report.Score,
		Scorer:          report.Scorer,
		Metrics:         metrics(report),
		Patterns:        report.Patterns,
		Tags:            verdict.Tags,
		Summary:         summary,
		Classifier:      verdict.Source,
		AnalyzedAt:      a.now().UTC(),
	}
	fa.Recommendations = Recommend(fa)

	if a.db != nil {
		if err := a.db.SaveInsight(fa); err != nil {
			log.Printf("Error caching analysis for %s: %v", path, err)
		}
	}
	return fa, false, nil
}

func score(ex extract.Extracted) complexity.Report {
	switch ex.Kind {
	case extract.KindBinary:
		return complexity.Report{}
	case extract.KindTabular:
		return complexity.AnalyzeTable(ex.Text, ex.Delimiter)
	default:
		return complexity.Analyze(ex.Language, ex.Text)
	}
}

func metrics(r complexity.Report) map[string]int {
	m := map[string]int{"lines": r.Lines}
	if r.Functions > 0 || r.Classes > 0 {
		m["functions"] = r.Functions
		m["classes"] = r.Classes
	}
	if r.Rows > 0 {
		m["rows"] = r.Rows
		m["cols"] = r.Cols
	}
	return m
}

func relPath(root, path string) string {
	if root == "" {
		return filepath.Base(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return rel
}
