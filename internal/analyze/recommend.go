package analyze

import (
	"slices"

	"github.com/TobiSchelling/contentaware/internal/classify"
	"github.com/TobiSchelling/contentaware/internal/database"
	"github.com/TobiSchelling/contentaware/internal/extract"
)

// Thresholds for recommendations.
const (
	highComplexity = 0.7
	lowConfidence  = 0.2
	largeFileBytes = 5 << 20
)

// Recommend returns short, human-readable suggestions for a file.
func Recommend(fa *database.FileAnalysis) []string {
	var recs []string

	if fa.Kind == extract.KindBinary {
		recs = append(recs, "Binary file: classified by name only")
	}
	if fa.ContentType == classify.General || fa.Confidence < lowConfidence {
		recs = append(recs, "Low classification confidence: review the category manually")
	}
	if fa.ComplexityScore >= highComplexity {
		if fa.Kind == extract.KindTabular {
			recs = append(recs, "Large dataset: consider a database or columnar format")
		} else {
			recs = append(recs, "High complexity: consider splitting into smaller modules")
		}
	}
	if fa.Kind == extract.KindCode && fa.Metrics["functions"] >= 5 && !slices.Contains(fa.Patterns, "testing") {
		recs = append(recs, "No tests detected: add unit tests")
	}
	if fa.Kind == extract.KindCode && slices.Contains(fa.Patterns, "api_client") {
		recs = append(recs, "Calls external APIs: keep keys in environment files, not source")
	}
	if fa.Size >= largeFileBytes {
		recs = append(recs, "Large file: consider archiving")
	}
	return recs
}
