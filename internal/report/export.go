package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/TobiSchelling/contentaware/internal/database"
)

// InsightsFile is the flat cache export name.
const InsightsFile = ".insights_database.json"

// ExportInsights writes every cached analysis as a JSON object keyed by
// content hash and returns the number of entries written.
func ExportInsights(db *database.DB, path string) (int, error) {
	insights, err := db.AllInsights()
	if err != nil {
		return 0, err
	}
	data, err := json.MarshalIndent(insights, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, err
	}
	return len(insights), nil
}
