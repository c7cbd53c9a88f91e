// Package cluster groups analyzed files into content clusters, either by
// shared classifier keywords or by embedding similarity.
package cluster

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode"

	"github.com/TobiSchelling/contentaware/internal/classify"
	"github.com/TobiSchelling/contentaware/internal/database"
	"github.com/TobiSchelling/contentaware/internal/llm"
)

const (
	UnclusteredLabel         = "Unclustered"
	DefaultMinOverlap        = 2
	DefaultDistanceThreshold = 1.2

	maxKeywords = 5
	labelWords  = 3
)

// Group is a computed cluster before it is stored.
type Group struct {
	Label       string
	ContentType string
	Keywords    []string
	Paths       []string
}

// Result holds the results of a clustering run.
type Result struct {
	ClusterCount     int
	FileCount        int
	UnclusteredCount int
	Groups           []Group
}

// Clusterer groups the files of a run and stores the clusters.
type Clusterer struct {
	db                *database.DB
	embedder          llm.Embedder
	minOverlap        int
	distanceThreshold float64
}

// NewClusterer creates a clusterer. With a nil embedder files are grouped
// by keyword overlap only.
func NewClusterer(db *database.DB, embedder llm.Embedder, minOverlap int, distanceThreshold float64) *Clusterer {
	if minOverlap <= 0 {
		minOverlap = DefaultMinOverlap
	}
	if distanceThreshold <= 0 {
		distanceThreshold = DefaultDistanceThreshold
	}
	return &Clusterer{
		db:                db,
		embedder:          embedder,
		minOverlap:        minOverlap,
		distanceThreshold: distanceThreshold,
	}
}

// ClusterRun recomputes the clusters of a run. Previous clusters for the
// run are replaced.
func (c *Clusterer) ClusterRun(ctx context.Context, runID string) (*Result, error) {
	analyses, err := c.db.GetAnalysesForRun(runID)
	if err != nil {
		return nil, err
	}

	if err := c.db.ClearClusters(runID); err != nil {
		return nil, err
	}

	if len(analyses) == 0 {
		log.Printf("No analyzed files to cluster for run %s", runID)
		return &Result{}, nil
	}

	var groups []Group
	if c.embedder != nil && len(analyses) >= 2 {
		groups, err = c.embeddingGroups(ctx, analyses)
		if err != nil {
			log.Printf("Embedding clustering failed, using keyword overlap: %v", err)
			groups = nil
		}
	}
	if groups == nil {
		groups = KeywordGroups(analyses, c.minOverlap)
	}

	r := &Result{FileCount: len(analyses), Groups: groups}
	for _, g := range groups {
		if _, err := c.db.InsertCluster(runID, g.Label, g.ContentType, g.Keywords, g.Paths); err != nil {
			return nil, err
		}
		r.ClusterCount++
		if g.Label == UnclusteredLabel {
			r.UnclusteredCount = len(g.Paths)
		}
	}

	log.Printf("Clustering complete: %d clusters (%d unclustered files) from %d files",
		r.ClusterCount, r.UnclusteredCount, r.FileCount)
	return r, nil
}

type building struct {
	contentType string
	counts      map[string]int
	paths       []string
}

// KeywordGroups greedily assigns each file, in path order, to the existing
// cluster of the same content type that shares the most keywords with it.
// A file joins a cluster when the overlap reaches minOverlap, or all of the
// file's keywords when it has fewer. Files left alone, and files without
// keywords, end up in a single Unclustered group.
func KeywordGroups(analyses []database.FileAnalysis, minOverlap int) []Group {
	if minOverlap <= 0 {
		minOverlap = DefaultMinOverlap
	}

	sorted := make([]database.FileAnalysis, len(analyses))
	copy(sorted, analyses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var clusters []*building
	var loose []string

	for _, fa := range sorted {
		words := keywordsOf(fa)
		if len(words) == 0 {
			loose = append(loose, fa.Path)
			continue
		}

		need := min(minOverlap, len(words))
		var best *building
		bestOverlap := 0
		for _, cl := range clusters {
			if cl.contentType != fa.ContentType {
				continue
			}
			overlap := 0
			for _, w := range words {
				if cl.counts[w] > 0 {
					overlap++
				}
			}
			if overlap >= need && overlap > bestOverlap {
				best, bestOverlap = cl, overlap
			}
		}

		if best == nil {
			best = &building{contentType: fa.ContentType, counts: make(map[string]int)}
			clusters = append(clusters, best)
		}
		for _, w := range words {
			best.counts[w]++
		}
		best.paths = append(best.paths, fa.Path)
	}

	var groups []Group
	for _, cl := range clusters {
		if len(cl.paths) < 2 {
			loose = append(loose, cl.paths...)
			continue
		}
		keywords := topKeywords(cl.counts, maxKeywords)
		groups = append(groups, Group{
			Label:       generateLabel(keywords, cl.contentType),
			ContentType: cl.contentType,
			Keywords:    keywords,
			Paths:       cl.paths,
		})
	}

	sortGroups(groups)
	if len(loose) > 0 {
		sort.Strings(loose)
		groups = append(groups, Group{Label: UnclusteredLabel, ContentType: classify.General, Paths: loose})
	}
	return groups
}

func (c *Clusterer) embeddingGroups(ctx context.Context, analyses []database.FileAnalysis) ([]Group, error) {
	texts := make([]string, len(analyses))
	for i, fa := range analyses {
		texts[i] = embeddingText(fa)
	}

	log.Printf("Generating embeddings for %d files...", len(analyses))
	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(analyses) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d files", len(vectors), len(analyses))
	}

	labels := cutDendrogram(wardLinkage(pairwiseDistances(vectors)), len(vectors), c.distanceThreshold)

	members := make(map[int][]database.FileAnalysis)
	for i, label := range labels {
		members[label] = append(members[label], analyses[i])
	}

	var groups []Group
	var loose []string
	for label := 0; label < len(members); label++ {
		files := members[label]
		if len(files) < 2 {
			for _, fa := range files {
				loose = append(loose, fa.Path)
			}
			continue
		}

		counts := make(map[string]int)
		types := make(map[string]int)
		var paths []string
		for _, fa := range files {
			for _, w := range keywordsOf(fa) {
				counts[w]++
			}
			types[fa.ContentType]++
			paths = append(paths, fa.Path)
		}
		sort.Strings(paths)

		contentType := topKeywords(types, 1)[0]
		keywords := topKeywords(counts, maxKeywords)
		groups = append(groups, Group{
			Label:       generateLabel(keywords, contentType),
			ContentType: contentType,
			Keywords:    keywords,
			Paths:       paths,
		})
	}

	sortGroups(groups)
	if len(loose) > 0 {
		sort.Strings(loose)
		groups = append(groups, Group{Label: UnclusteredLabel, ContentType: classify.General, Paths: loose})
	}
	return groups, nil
}

func embeddingText(fa database.FileAnalysis) string {
	parts := []string{fa.RelPath, fa.ContentType, fa.Purpose}
	parts = append(parts, fa.Tags...)
	if fa.Summary != "" {
		parts = append(parts, fa.Summary)
	}
	return strings.Join(parts, " ")
}

// keywordsOf returns the plain-word tags of an analysis. Tags recorded for
// regex matches are not usable as keywords.
func keywordsOf(fa database.FileAnalysis) []string {
	var words []string
	for _, tag := range fa.Tags {
		if isWord(tag) {
			words = append(words, tag)
		}
	}
	return words
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != ' ' && r != '-' {
			return false
		}
	}
	return true
}

// topKeywords returns up to n keys ordered by count descending, then name.
func topKeywords(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func sortGroups(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].Paths) != len(groups[j].Paths) {
			return len(groups[i].Paths) > len(groups[j].Paths)
		}
		return groups[i].Label < groups[j].Label
	})
}

func generateLabel(keywords []string, contentType string) string {
	var words []string
	for _, kw := range keywords {
		if len(words) == labelWords {
			break
		}
		words = append(words, titleCase(kw))
	}
	if len(words) > 0 {
		return strings.Join(words, " ")
	}
	return titleCase(strings.ReplaceAll(contentType, "_", " "))
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		r := []rune(f)
		r[0] = unicode.ToUpper(r[0])
		fields[i] = string(r)
	}
	return strings.Join(fields, " ")
}
