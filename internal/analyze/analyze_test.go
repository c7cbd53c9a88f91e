package analyze

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/contentaware/internal/classify"
	"github.com/TobiSchelling/contentaware/internal/database"
	"github.com/TobiSchelling/contentaware/internal/extract"
)

type countingClassifier struct {
	inner *classify.HeuristicClassifier
	calls int
}

func (c *countingClassifier) Name() string { return "counting" }

func (c *countingClassifier) Classify(ctx context.Context, doc classify.Document) (classify.Verdict, error) {
	c.calls++
	return c.inner.Classify(ctx, doc)
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzePythonExample(t *testing.T) {
	a := New(nil, classify.NewHeuristic())
	fa, hit, err := a.Analyze(context.Background(), "bar.py", []byte("def foo():\n    pass\nclass Bar:\n    pass\n"))
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, database.SchemaVersion, fa.SchemaVersion)
	assert.Equal(t, "python", fa.Language)
	assert.Equal(t, extract.KindCode, fa.Kind)
	assert.Equal(t, 0.3, fa.ComplexityScore)
	assert.Equal(t, 1, fa.Metrics["functions"])
	assert.Equal(t, 1, fa.Metrics["classes"])
	assert.Contains(t, fa.Patterns, "object_oriented")
	assert.Equal(t, ".py", fa.Extension)
	assert.Equal(t, HashBytes([]byte("def foo():\n    pass\nclass Bar:\n    pass\n")), fa.ContentHash)
	assert.Equal(t, classify.HeuristicName, fa.Classifier)
}

func TestAnalyzeEmptyFile(t *testing.T) {
	a := New(nil, classify.NewHeuristic())
	fa, _, err := a.Analyze(context.Background(), "empty", nil)
	require.NoError(t, err)
	assert.Equal(t, classify.General, fa.ContentType)
	assert.Equal(t, 0.0, fa.Confidence)
	assert.Equal(t, 0.0, fa.ComplexityScore)
}

func TestCacheHitReturnsStoredResult(t *testing.T) {
	db := openTestDB(t)
	cls := &countingClassifier{inner: classify.NewHeuristic()}
	a := New(db, cls)
	a.now = func() time.Time { return time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC) }

	dir := t.TempDir()
	content := "import openai\nprompt = 'summarize'\n# llm embedding\n"
	first := writeFile(t, dir, "a/summarize.py", content)
	second := writeFile(t, dir, "b/copy.py", content)

	fa1, hit, err := a.AnalyzeFile(context.Background(), dir, first)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, filepath.Join("a", "summarize.py"), fa1.RelPath)

	a.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	fa2, hit, err := a.AnalyzeFile(context.Background(), dir, second)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, cls.calls)

	assert.Equal(t, second, fa2.Path)
	assert.Equal(t, filepath.Join("b", "copy.py"), fa2.RelPath)

	// Everything but the location is the stored result.
	fa2.Path, fa2.RelPath = fa1.Path, fa1.RelPath
	assert.Equal(t, fa1.ContentType, fa2.ContentType)
	assert.Equal(t, fa1.ContentHash, fa2.ContentHash)
	assert.True(t, fa1.AnalyzedAt.Equal(fa2.AnalyzedAt))
	assert.Equal(t, fa1.Tags, fa2.Tags)
}

func TestAnalyzeFileMissing(t *testing.T) {
	a := New(nil, classify.NewHeuristic())
	_, _, err := a.AnalyzeFile(context.Background(), "", filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestAnalyzeBinaryClassifiesByName(t *testing.T) {
	a := New(nil, classify.NewHeuristic())
	fa, _, err := a.Analyze(context.Background(), "/x/invoice_march.bin", []byte{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, extract.KindBinary, fa.Kind)
	assert.Equal(t, "finance", fa.ContentType)
	assert.Contains(t, fa.Recommendations, "Binary file: classified by name only")
}

func TestAnalyzeTabular(t *testing.T) {
	a := New(nil, classify.NewHeuristic())
	fa, _, err := a.Analyze(context.Background(), "sales.csv", []byte("month,revenue\njan,100\nfeb,120\n"))
	require.NoError(t, err)
	assert.Equal(t, extract.KindTabular, fa.Kind)
	assert.Equal(t, 3, fa.Metrics["rows"])
	assert.Equal(t, 2, fa.Metrics["cols"])
	assert.Contains(t, fa.Patterns, "tabular_data")
}

func TestRecommend(t *testing.T) {
	fa := &database.FileAnalysis{
		Kind:            extract.KindCode,
		ContentType:     "automation",
		Confidence:      0.8,
		ComplexityScore: 0.9,
		Metrics:         map[string]int{"functions": 8},
		Patterns:        []string{"api_client"},
	}
	recs := Recommend(fa)
	assert.Contains(t, recs, "High complexity: consider splitting into smaller modules")
	assert.Contains(t, recs, "No tests detected: add unit tests")
	assert.Contains(t, recs, "Calls external APIs: keep keys in environment files, not source")
	assert.NotContains(t, recs, "Low classification confidence: review the category manually")

	assert.Empty(t, Recommend(&database.FileAnalysis{Kind: extract.KindText, ContentType: "finance", Confidence: 0.5}))
}
