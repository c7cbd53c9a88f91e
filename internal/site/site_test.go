package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/contentaware/internal/analyze"
	"github.com/TobiSchelling/contentaware/internal/database"
	"github.com/TobiSchelling/contentaware/internal/extract"
)

func seed(t *testing.T) (*database.DB, string, string) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	root := t.TempDir()
	src := "def total(items):\n    return sum(items)  # ``` inside\n"
	path := filepath.Join(root, "calc.py")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	runID, err := db.StartRun(root)
	require.NoError(t, err)

	fa := &database.FileAnalysis{
		SchemaVersion: database.SchemaVersion,
		Path:          path,
		RelPath:       "calc.py",
		ContentHash:   analyze.HashBytes([]byte(src)),
		Size:          int64(len(src)),
		Kind:          extract.KindCode,
		ContentType:   "finance",
		Confidence:    0.5,
		Language:      "python",
		Purpose:       "analysis",
		Tags:          []string{"total"},
	}
	require.NoError(t, db.SaveInsight(fa))
	require.NoError(t, db.UpsertFile(runID, fa))
	require.NoError(t, db.FinishRun(runID, 1, 1, 0, 0))
	return db, runID, path
}

func TestGenerateWritesPages(t *testing.T) {
	db, runID, path := seed(t)
	gen, err := NewGenerator(db)
	require.NoError(t, err)

	out := t.TempDir()
	res, err := gen.Generate(runID, out)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pages)

	index, err := os.ReadFile(res.Index)
	require.NoError(t, err)
	assert.Contains(t, string(index), `href="categories/finance.html"`)
	assert.Contains(t, string(index), "Content Analysis Report")

	category, err := os.ReadFile(filepath.Join(out, "categories", "finance.html"))
	require.NoError(t, err)
	assert.Contains(t, string(category), "calc.py")

	page := filepath.Join(out, "files", filePage(database.FileAnalysis{Path: path}))
	body, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Contains(t, string(body), `class="language-python"`)
	assert.Contains(t, string(body), "return sum(items)")

	_, err = os.Stat(filepath.Join(out, "style.css"))
	assert.NoError(t, err)
}

func TestSourceSkippedWhenChanged(t *testing.T) {
	db, runID, path := seed(t)
	require.NoError(t, os.WriteFile(path, []byte("print('changed')\n"), 0o644))

	gen, err := NewGenerator(db)
	require.NoError(t, err)
	out := t.TempDir()
	_, err = gen.Generate(runID, out)
	require.NoError(t, err)

	body, err := os.ReadFile(filepath.Join(out, "files", filePage(database.FileAnalysis{Path: path})))
	require.NoError(t, err)
	assert.NotContains(t, string(body), "changed")
	assert.NotContains(t, string(body), "Source")
}

func TestGenerateUnknownRun(t *testing.T) {
	db, _, _ := seed(t)
	gen, err := NewGenerator(db)
	require.NoError(t, err)

	_, err = gen.Generate("missing", t.TempDir())
	assert.Error(t, err)
}

func TestFenceFor(t *testing.T) {
	assert.Equal(t, "```", fenceFor("plain"))
	assert.Equal(t, "````", fenceFor("has ``` fence"))
	assert.Equal(t, "``````", fenceFor("`````"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "ai_ml", slug("ai_ml"))
	assert.Equal(t, "my-file.py", slug("My File.py"))
}
