package database

import (
	"database/sql"
	"encoding/json"
)

// InsertCluster creates a cluster and links it to file paths.
func (db *DB) InsertCluster(runID, label, contentType string, keywords, paths []string) (int64, error) {
	kw, err := json.Marshal(keywords)
	if err != nil {
		return 0, err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO clusters (run_id, label, content_type, keywords, file_count) VALUES (?, ?, ?, ?, ?)`,
		runID, label, contentType, string(kw), len(paths),
	)
	if err != nil {
		return 0, err
	}

	clusterID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, p := range paths {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO cluster_files (cluster_id, path) VALUES (?, ?)",
			clusterID, p,
		); err != nil {
			return 0, err
		}
	}

	return clusterID, tx.Commit()
}

// ClearClusters deletes a run's clusters so they can be recomputed.
func (db *DB) ClearClusters(runID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM cluster_files WHERE cluster_id IN (SELECT id FROM clusters WHERE run_id = ?)", runID,
	); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM clusters WHERE run_id = ?", runID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetClustersForRun returns clusters ordered by file_count DESC.
func (db *DB) GetClustersForRun(runID string) ([]ContentCluster, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_id, label, content_type, keywords, file_count, created_at
		FROM clusters WHERE run_id = ? ORDER BY file_count DESC, label ASC`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clusters []ContentCluster
	for rows.Next() {
		var c ContentCluster
		var contentType, keywords sql.NullString
		if err := rows.Scan(&c.ID, &c.RunID, &c.Label, &contentType, &keywords, &c.FileCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.ContentType = contentType.String
		if keywords.Valid && keywords.String != "" {
			json.Unmarshal([]byte(keywords.String), &c.Keywords)
		}
		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}

// GetClusterFiles returns the paths linked to a cluster, sorted.
func (db *DB) GetClusterFiles(clusterID int64) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT path FROM cluster_files WHERE cluster_id = ? ORDER BY path", clusterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
