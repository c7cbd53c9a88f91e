package organize

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

type backupRecord struct {
	source, target, status, errMsg string
}

// BackupPath returns the CSV move log location for a run.
func BackupPath(dir, runID string) string {
	return filepath.Join(dir, fmt.Sprintf("moves_%s.csv", runID))
}

func writeBackup(dir, runID string, records []backupRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := BackupPath(dir, runID)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{"source", "target", "status", "error"})
	for _, r := range records {
		w.Write([]string{r.source, r.target, r.status, r.errMsg})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, f.Close()
}
