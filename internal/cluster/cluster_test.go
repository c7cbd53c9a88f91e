package cluster

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/contentaware/internal/database"
)

// mockEmbedder implements llm.Embedder for testing.
type mockEmbedder struct {
	embeddings [][]float64
	err        error
}

func (m *mockEmbedder) Embed(_ context.Context, _ []string) ([][]float64, error) {
	return m.embeddings, m.err
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func analysis(path, contentType string, tags ...string) database.FileAnalysis {
	return database.FileAnalysis{
		SchemaVersion: database.SchemaVersion,
		Path:          path,
		RelPath:       filepath.Base(path),
		ContentHash:   "hash-" + path,
		ContentType:   contentType,
		Tags:          tags,
		Classifier:    "heuristic",
	}
}

func seedRun(t *testing.T, db *database.DB, analyses ...database.FileAnalysis) string {
	t.Helper()
	run, err := db.StartRun("/data")
	require.NoError(t, err)
	for i := range analyses {
		require.NoError(t, db.SaveInsight(&analyses[i]))
		require.NoError(t, db.UpsertFile(run, &analyses[i]))
	}
	return run
}

func TestKeywordGroupsByOverlap(t *testing.T) {
	groups := KeywordGroups([]database.FileAnalysis{
		analysis("/a/chat.py", "ai_ml", "openai", "prompt", "llm"),
		analysis("/a/embed.py", "ai_ml", "embedding", "openai", "prompt"),
		analysis("/b/invoice.txt", "finance", "invoice", "payment"),
		analysis("/b/receipt.txt", "finance", "invoice", "payment", "price"),
		analysis("/c/poem.md", "creative_writing", "poem"),
		analysis("/c/empty.txt", "general"),
	}, 2)

	require.Len(t, groups, 3)
	// Equal sizes sort by label.
	assert.Equal(t, "finance", groups[0].ContentType)
	assert.Equal(t, "Invoice Payment Price", groups[0].Label)

	assert.Equal(t, []string{"/a/chat.py", "/a/embed.py"}, groups[1].Paths)
	assert.Equal(t, "ai_ml", groups[1].ContentType)
	assert.Equal(t, "Openai Prompt Embedding", groups[1].Label)
	assert.Equal(t, []string{"openai", "prompt", "embedding", "llm"}, groups[1].Keywords)

	assert.Equal(t, UnclusteredLabel, groups[2].Label)
	assert.Equal(t, []string{"/c/empty.txt", "/c/poem.md"}, groups[2].Paths)
}

func TestKeywordGroupsRespectContentType(t *testing.T) {
	groups := KeywordGroups([]database.FileAnalysis{
		analysis("/1", "ai_ml", "prompt", "openai"),
		analysis("/2", "testing", "prompt", "openai"),
	}, 2)
	require.Len(t, groups, 1)
	assert.Equal(t, UnclusteredLabel, groups[0].Label)
}

func TestKeywordGroupsSingleTagFiles(t *testing.T) {
	groups := KeywordGroups([]database.FileAnalysis{
		analysis("/1", "finance", "invoice"),
		analysis("/2", "finance", "invoice"),
	}, 2)
	require.Len(t, groups, 1)
	assert.Equal(t, "Invoice", groups[0].Label)
}

func TestKeywordGroupsIgnoreRegexTags(t *testing.T) {
	groups := KeywordGroups([]database.FileAnalysis{
		analysis("/1", "finance", `\$\d+(\.\d{2})?`),
		analysis("/2", "finance", `\$\d+(\.\d{2})?`),
	}, 1)
	require.Len(t, groups, 1)
	assert.Equal(t, UnclusteredLabel, groups[0].Label)
}

func TestKeywordGroupsDeterministic(t *testing.T) {
	in := []database.FileAnalysis{
		analysis("/z", "ai_ml", "llm", "gpt"),
		analysis("/a", "ai_ml", "gpt", "llm"),
		analysis("/m", "ai_ml", "llm", "gpt"),
	}
	first := KeywordGroups(in, 2)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, KeywordGroups(in, 2))
	}
	assert.Equal(t, []string{"/a", "/m", "/z"}, first[0].Paths)
	assert.Equal(t, "Gpt Llm", first[0].Label)
}

func TestGenerateLabelFallsBackToContentType(t *testing.T) {
	assert.Equal(t, "Data Analysis", generateLabel(nil, "data_analysis"))
	assert.Equal(t, "Machine Learning", generateLabel([]string{"machine learning"}, "ai_ml"))
}

func TestClusterRunNoFiles(t *testing.T) {
	db := openTestDB(t)
	run := seedRun(t, db)

	result, err := NewClusterer(db, nil, 2, 0).ClusterRun(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ClusterCount)
	assert.Equal(t, 0, result.FileCount)
}

func TestClusterRunStoresClusters(t *testing.T) {
	db := openTestDB(t)
	run := seedRun(t, db,
		analysis("/a/chat.py", "ai_ml", "openai", "prompt"),
		analysis("/a/embed.py", "ai_ml", "openai", "prompt"),
		analysis("/c/poem.md", "creative_writing", "poem"),
	)

	result, err := NewClusterer(db, nil, 2, 0).ClusterRun(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ClusterCount)
	assert.Equal(t, 1, result.UnclusteredCount)

	clusters, err := db.GetClustersForRun(run)
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Equal(t, "Openai Prompt", clusters[0].Label)

	paths, _ := db.GetClusterFiles(clusters[0].ID)
	assert.Equal(t, []string{"/a/chat.py", "/a/embed.py"}, paths)
}

func TestReClusteringClearsOldData(t *testing.T) {
	db := openTestDB(t)
	run := seedRun(t, db,
		analysis("/1", "finance", "invoice"),
		analysis("/2", "finance", "invoice"),
	)

	c := NewClusterer(db, nil, 2, 0)
	_, err := c.ClusterRun(context.Background(), run)
	require.NoError(t, err)
	_, err = c.ClusterRun(context.Background(), run)
	require.NoError(t, err)

	clusters, _ := db.GetClustersForRun(run)
	assert.Len(t, clusters, 1)
}

func TestClusterRunWithEmbeddings(t *testing.T) {
	db := openTestDB(t)
	run := seedRun(t, db,
		analysis("/1", "ai_ml", "llm"),
		analysis("/2", "ai_ml", "gpt"),
		analysis("/3", "testing", "llm"),
		analysis("/4", "finance", "invoice"),
	)

	// GetAnalysesForRun returns files ordered by path.
	embedder := &mockEmbedder{embeddings: threeAndOutlier}
	result, err := NewClusterer(db, embedder, 2, 1.0).ClusterRun(context.Background(), run)
	require.NoError(t, err)

	require.Len(t, result.Groups, 2)
	assert.Equal(t, []string{"/1", "/2", "/3"}, result.Groups[0].Paths)
	assert.Equal(t, "ai_ml", result.Groups[0].ContentType)
	assert.Equal(t, "Llm Gpt", result.Groups[0].Label)
	assert.Equal(t, UnclusteredLabel, result.Groups[1].Label)
	assert.Equal(t, []string{"/4"}, result.Groups[1].Paths)
}

func TestClusterRunEmbeddingFailureFallsBack(t *testing.T) {
	db := openTestDB(t)
	run := seedRun(t, db,
		analysis("/1", "finance", "invoice"),
		analysis("/2", "finance", "invoice"),
	)

	embedder := &mockEmbedder{err: errors.New("ollama down")}
	result, err := NewClusterer(db, embedder, 2, 0).ClusterRun(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, "Invoice", result.Groups[0].Label)
}

func TestClusterRunEmbeddingCountMismatchFallsBack(t *testing.T) {
	db := openTestDB(t)
	run := seedRun(t, db,
		analysis("/1", "finance", "invoice"),
		analysis("/2", "finance", "invoice"),
	)

	embedder := &mockEmbedder{embeddings: [][]float64{{1, 0}}}
	result, err := NewClusterer(db, embedder, 2, 0).ClusterRun(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ClusterCount)
}
