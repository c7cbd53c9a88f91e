package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/contentaware/internal/analyze"
	"github.com/TobiSchelling/contentaware/internal/classify"
	"github.com/TobiSchelling/contentaware/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func rels(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestWalkFilters(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py":                  "print(1)",
		"docs/readme.md":        "# hi",
		".hidden/secret.txt":    "x",
		".env":                  "KEY=1",
		"node_modules/x/pkg.js": "module.exports = 1",
		"big.log":               strings.Repeat("x", 100),
		"out/organized.txt":     "moved",
	})

	opts := Options{
		MaxFileSize: 50,
		SkipHidden:  true,
		Exclude:     []string{"node_modules"},
		SkipDirs:    []string{filepath.Join(root, "out")},
	}
	paths, skipped, err := Walk(root, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "docs/readme.md"}, rels(t, root, paths))
	assert.Equal(t, 2, skipped) // .env and big.log
}

func TestWalkExcludeGlob(t *testing.T) {
	root := writeTree(t, map[string]string{
		"keep.txt": "a",
		"drop.pyc": "b",
	})
	paths, _, err := Walk(root, Options{Exclude: []string{"*.pyc"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.txt"}, rels(t, root, paths))
}

func TestScanRecordsRun(t *testing.T) {
	db := openTestDB(t)
	root := writeTree(t, map[string]string{
		"ai/summarize.py":  "import openai\nprompt = 'x'\n",
		"money/invoice.txt": "invoice payment total $120.00",
		"copy/invoice.txt":  "invoice payment total $120.00",
		"notes.txt":         "",
	})

	s := NewScanner(db, analyze.New(db, classify.NewHeuristic()), Options{Workers: 3})
	r, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 4, r.Files)
	assert.Equal(t, 4, r.Analyzed)
	assert.Equal(t, 0, r.Errors)
	require.Len(t, r.Analyses, 4)
	// Analyses follow walk order.
	assert.Equal(t, filepath.Join("ai", "summarize.py"), r.Analyses[0].RelPath)

	run, err := db.GetRun(r.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 4, run.Files)
	assert.NotNil(t, run.FinishedAt)

	files, err := db.GetFilesForRun(r.RunID)
	require.NoError(t, err)
	assert.Len(t, files, 4)
}

func TestRescanHitsCache(t *testing.T) {
	db := openTestDB(t)
	root := writeTree(t, map[string]string{
		"a.txt": "invoice",
		"b.txt": "story chapter",
	})
	s := NewScanner(db, analyze.New(db, classify.NewHeuristic()), Options{Workers: 2})

	first, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 0, first.CacheHits)

	second, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, second.CacheHits)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Analyses[0].ContentType, second.Analyses[0].ContentType)
}

func TestScanWithoutDB(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "hello"})
	s := NewScanner(nil, analyze.New(nil, classify.NewHeuristic()), Options{})
	r, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Analyzed)
	assert.NotEmpty(t, r.RunID)
}

func TestScanRejectsFile(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "hello"})
	s := NewScanner(nil, analyze.New(nil, classify.NewHeuristic()), Options{})
	_, err := s.Scan(context.Background(), filepath.Join(root, "a.txt"))
	assert.Error(t, err)
}

func TestScanCancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "x", "b.txt": "y"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScanner(nil, analyze.New(nil, classify.NewHeuristic()), Options{Workers: 1})
	r, err := s.Scan(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, r.Analyzed)
}
