// Package scan walks a directory tree and analyzes every eligible file.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/contentaware/internal/analyze"
	"github.com/TobiSchelling/contentaware/internal/config"
	"github.com/TobiSchelling/contentaware/internal/database"
)

// Options control which files are visited and how many are analyzed at once.
type Options struct {
	Workers     int
	MaxFileSize int64
	SkipHidden  bool
	Exclude     []string
	// SkipDirs are absolute directories never descended into, such as the
	// organizer destination.
	SkipDirs []string
}

// OptionsFromConfig builds Options from the scan section of the config.
func OptionsFromConfig(cfg config.Scan) Options {
	return Options{
		Workers:     cfg.Workers,
		MaxFileSize: cfg.MaxFileSize,
		SkipHidden:  cfg.SkipHidden,
		Exclude:     cfg.Exclude,
	}
}

// Result holds the results of a scan run.
type Result struct {
	RunID     string
	Root      string
	Files     int
	Analyzed  int
	CacheHits int
	Skipped   int
	Errors    int
	Analyses  []database.FileAnalysis
}

// Scanner analyzes directory trees and records them in the database.
type Scanner struct {
	db       *database.DB
	analyzer *analyze.Analyzer
	opts     Options
}

// NewScanner creates a scanner. db may be nil for a read-only scan.
func NewScanner(db *database.DB, analyzer *analyze.Analyzer, opts Options) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Scanner{db: db, analyzer: analyzer, opts: opts}
}

// Scan walks root, then analyzes the collected files with bounded
// concurrency. Per-file failures are logged and counted; cancellation of ctx
// stops the scan and is returned as an error.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	root, err := filepath.Abs(config.ExpandHome(root))
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	paths, skipped, err := Walk(root, s.opts)
	if err != nil {
		return nil, err
	}

	runID := database.NewRunID()
	if s.db != nil {
		if runID, err = s.db.StartRun(root); err != nil {
			return nil, fmt.Errorf("starting run: %w", err)
		}
	}

	r := &Result{RunID: runID, Root: root, Files: len(paths), Skipped: skipped}
	log.Printf("Found %d files under %s (%d skipped)", len(paths), root, skipped)

	analyses := make([]*database.FileAnalysis, len(paths))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			fa, hit, err := s.analyzer.AnalyzeFile(gCtx, root, path)
			if err != nil {
				log.Printf("Error analyzing %s: %v", path, err)
				mu.Lock()
				r.Errors++
				mu.Unlock()
				return nil
			}
			if s.db != nil {
				if err := s.db.UpsertFile(runID, fa); err != nil {
					log.Printf("Error recording %s: %v", path, err)
				}
			}

			mu.Lock()
			analyses[i] = fa
			r.Analyzed++
			if hit {
				r.CacheHits++
			}
			mu.Unlock()
			log.Printf("Analyzed [%s %.2f]: %s", fa.ContentType, fa.Confidence, fa.RelPath)
			return nil
		})
	}
	waitErr := g.Wait()

	for _, fa := range analyses {
		if fa != nil {
			r.Analyses = append(r.Analyses, *fa)
		}
	}

	if s.db != nil {
		if err := s.db.FinishRun(runID, r.Files, r.Analyzed, r.CacheHits, r.Errors); err != nil {
			log.Printf("Error finishing run %s: %v", runID, err)
		}
	}

	if waitErr != nil {
		return r, fmt.Errorf("scan interrupted: %w", waitErr)
	}

	log.Printf("Scan complete: %d analyzed (%d cached), %d errors", r.Analyzed, r.CacheHits, r.Errors)
	return r, nil
}

// Walk returns the regular files under root that pass the options, sorted
// lexically, and the number of files that were skipped.
func Walk(root string, opts Options) ([]string, int, error) {
	var paths []string
	skipped := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Printf("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		name := d.Name()
		rel, _ := filepath.Rel(root, path)

		if d.IsDir() {
			if (opts.SkipHidden && strings.HasPrefix(name, ".")) || excluded(opts.Exclude, name, rel) || underAny(opts.SkipDirs, path) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			skipped++
			return nil
		}
		if (opts.SkipHidden && strings.HasPrefix(name, ".")) || excluded(opts.Exclude, name, rel) {
			skipped++
			return nil
		}
		if opts.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil || info.Size() > opts.MaxFileSize {
				skipped++
				return nil
			}
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walking %s: %w", root, err)
	}
	return paths, skipped, nil
}

func excluded(patterns []string, name, rel string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func underAny(dirs []string, path string) bool {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if path == d || strings.HasPrefix(path, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
