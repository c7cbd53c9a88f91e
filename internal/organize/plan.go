// Package organize plans and applies category-based moves of analyzed
// files, keeps a log of every move, and can undo an applied run.
package organize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/TobiSchelling/contentaware/internal/analyze"
	"github.com/TobiSchelling/contentaware/internal/classify"
	"github.com/TobiSchelling/contentaware/internal/config"
	"github.com/TobiSchelling/contentaware/internal/database"
	"github.com/TobiSchelling/contentaware/internal/extract"
)

var (
	// ErrSourceMissing means the file disappeared between scan and move.
	ErrSourceMissing = errors.New("source file no longer exists")
	// ErrSameFile means the file already sits at its target.
	ErrSameFile = errors.New("file is already in place")
	// ErrDuplicate means an identical file already exists at the target.
	ErrDuplicate = errors.New("identical file already at target")
)

// Options control where files go and whether they are actually moved.
type Options struct {
	Destination     string
	MinConfidence   float64
	LanguageSubdirs bool
	Apply           bool
	BackupDir       string
}

// OptionsFromConfig builds Options from the organize section of the config.
// An empty destination means files are organized inside the scan root.
func OptionsFromConfig(cfg config.Organize, backupDir string) Options {
	return Options{
		Destination:     config.ExpandHome(cfg.Destination),
		MinConfidence:   cfg.MinConfidence,
		LanguageSubdirs: cfg.LanguageSubdirs,
		BackupDir:       backupDir,
	}
}

// PlannedMove is one entry of a plan. Reason is set when the file will not
// be moved.
type PlannedMove struct {
	Source      string
	Target      string
	Category    string
	Language    string
	Confidence  float64
	ContentHash string
	Reason      error
}

// Plan is the full set of proposed moves for a run.
type Plan struct {
	RunID       string
	Root        string
	Destination string
	Moves       []PlannedMove
	// Kept are files below the confidence threshold; they stay in place.
	Kept []database.FileAnalysis
}

// Actionable returns the moves that would relocate a file.
func (p *Plan) Actionable() []PlannedMove {
	var out []PlannedMove
	for _, m := range p.Moves {
		if m.Reason == nil {
			out = append(out, m)
		}
	}
	return out
}

// Categories returns actionable move counts per category.
func (p *Plan) Categories() map[string]int {
	counts := make(map[string]int)
	for _, m := range p.Actionable() {
		counts[m.Category]++
	}
	return counts
}

// BuildPlan computes targets for the analyses of a run. Files are visited in
// path order so the plan is deterministic. Name collisions are resolved by
// appending _1, _2, ... before the extension; a file whose identical copy
// already sits at the target is skipped.
func BuildPlan(runID, root string, analyses []database.FileAnalysis, opts Options) *Plan {
	dest := opts.Destination
	if dest == "" {
		dest = root
	}
	plan := &Plan{RunID: runID, Root: root, Destination: dest}

	sorted := make([]database.FileAnalysis, len(analyses))
	copy(sorted, analyses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	reserved := make(map[string]bool)
	for _, fa := range sorted {
		if fa.Confidence < opts.MinConfidence || fa.ContentType == "" {
			plan.Kept = append(plan.Kept, fa)
			continue
		}

		m := PlannedMove{
			Source:      fa.Path,
			Category:    fa.ContentType,
			Language:    fa.Language,
			Confidence:  fa.Confidence,
			ContentHash: fa.ContentHash,
		}
		dir := targetDir(dest, fa, opts.LanguageSubdirs)
		m.Target, m.Reason = resolveTarget(dir, fa.Path, fa.ContentHash, reserved)
		if m.Reason == nil {
			reserved[m.Target] = true
		}
		plan.Moves = append(plan.Moves, m)
	}
	return plan
}

func targetDir(dest string, fa database.FileAnalysis, languageSubdirs bool) string {
	dir := filepath.Join(dest, sanitize(fa.ContentType))
	if languageSubdirs && fa.Kind == extract.KindCode && fa.Language != "" && fa.Language != classify.Unknown {
		dir = filepath.Join(dir, sanitize(fa.Language))
	}
	return dir
}

// resolveTarget picks the first free name in dir for source.
func resolveTarget(dir, source, hash string, reserved map[string]bool) (string, error) {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		candidate := filepath.Join(dir, name)

		if candidate == source {
			return candidate, ErrSameFile
		}
		if reserved[candidate] {
			continue
		}
		if _, err := os.Lstat(candidate); err == nil {
			if hash != "" && sameContent(candidate, hash) {
				return candidate, ErrDuplicate
			}
			continue
		}
		return candidate, nil
	}
}

func sameContent(path, hash string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return analyze.HashBytes(data) == hash
}

// sanitize keeps a category or language usable as a single path element.
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == filepath.Separator || r == '/' || r == ':' {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return classify.General
	}
	return name
}
