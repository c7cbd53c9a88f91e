package database

import "time"

// SchemaVersion is the current FileAnalysis layout. Cached analyses with a
// different version are ignored.
const SchemaVersion = 1

// Move statuses.
const (
	MovePlanned = "planned"
	MoveMoved   = "moved"
	MoveSkipped = "skipped"
	MoveFailed  = "failed"
	MoveUndone  = "undone"
)

// FileAnalysis is the result of analyzing one file. It is stored as JSON in
// the insights table, keyed by ContentHash.
type FileAnalysis struct {
	SchemaVersion   int            `json:"schema_version"`
	Path            string         `json:"path"`
	RelPath         string         `json:"rel_path,omitempty"`
	ContentHash     string         `json:"content_hash"`
	Size            int64          `json:"size"`
	Extension       string         `json:"extension,omitempty"`
	Kind            string         `json:"kind"`
	ContentType     string         `json:"content_type"`
	Confidence      float64        `json:"confidence"`
	Language        string         `json:"language"`
	Purpose         string         `json:"purpose"`
	ComplexityScore float64        `json:"complexity_score"`
	Scorer          string         `json:"scorer,omitempty"`
	Metrics         map[string]int `json:"metrics,omitempty"`
	Patterns        []string       `json:"patterns,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Summary         string         `json:"summary,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Classifier      string         `json:"classifier"`
	AnalyzedAt      time.Time      `json:"analyzed_at"`
}

// FileRecord is the latest observation of a path, linked to its analysis by
// content hash.
type FileRecord struct {
	Path        string
	RunID       string
	RelPath     string
	ContentHash string
	Size        int64
	ContentType string
	Confidence  float64
	Language    string
	SeenAt      *string
}

// Run holds metadata about one scan.
type Run struct {
	ID         string
	Root       string
	StartedAt  *string
	FinishedAt *string
	Files      int
	Analyzed   int
	CacheHits  int
	Errors     int
}

// ContentCluster is a group of files that share keywords.
type ContentCluster struct {
	ID          int64
	RunID       string
	Label       string
	ContentType string
	Keywords    []string
	FileCount   int
	CreatedAt   *string
}

// Move is one planned or applied relocation.
type Move struct {
	ID          int64
	RunID       string
	Source      string
	Target      string
	ContentHash string
	Status      string
	Error       *string
	CreatedAt   *string
	UpdatedAt   *string
}

// CategoryCount is a row of the per-category breakdown.
type CategoryCount struct {
	ContentType string
	Files       int
	AvgConf     float64
}

// Stats summarizes the database contents.
type Stats struct {
	Files        int
	Insights     int
	StaleInsight int
	Runs         int
	Clusters     int
	Moves        map[string]int
}
