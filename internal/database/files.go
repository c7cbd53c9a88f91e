package database

import "database/sql"

// UpsertFile records the latest observation of a path.
func (db *DB) UpsertFile(runID string, fa *FileAnalysis) error {
	_, err := db.conn.Exec(
		`INSERT INTO files (path, run_id, rel_path, content_hash, size, content_type, confidence, language, seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(path) DO UPDATE SET
			run_id = excluded.run_id,
			rel_path = excluded.rel_path,
			content_hash = excluded.content_hash,
			size = excluded.size,
			content_type = excluded.content_type,
			confidence = excluded.confidence,
			language = excluded.language,
			seen_at = excluded.seen_at`,
		fa.Path, runID, fa.RelPath, fa.ContentHash, fa.Size, fa.ContentType, fa.Confidence, fa.Language,
	)
	return err
}

// DeleteFile removes a path from the index.
func (db *DB) DeleteFile(path string) error {
	_, err := db.conn.Exec("DELETE FROM files WHERE path = ?", path)
	return err
}

// RenameFile updates the indexed path after a move.
func (db *DB) RenameFile(oldPath, newPath string) error {
	_, err := db.conn.Exec("UPDATE files SET path = ? WHERE path = ?", newPath, oldPath)
	return err
}

// GetFile returns the indexed record for a path, or nil if not found.
func (db *DB) GetFile(path string) (*FileRecord, error) {
	row := db.conn.QueryRow(
		`SELECT path, run_id, rel_path, content_hash, size, content_type, confidence, language, seen_at
		FROM files WHERE path = ?`, path,
	)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetFilesForRun returns the files last seen by a run, ordered by path.
func (db *DB) GetFilesForRun(runID string) ([]FileRecord, error) {
	rows, err := db.conn.Query(
		`SELECT path, run_id, rel_path, content_hash, size, content_type, confidence, language, seen_at
		FROM files WHERE run_id = ? ORDER BY path`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFiles(rows)
}

// GetFilesByType returns indexed files of one content type, ordered by path.
func (db *DB) GetFilesByType(contentType string) ([]FileRecord, error) {
	rows, err := db.conn.Query(
		`SELECT path, run_id, rel_path, content_hash, size, content_type, confidence, language, seen_at
		FROM files WHERE content_type = ? ORDER BY path`, contentType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFiles(rows)
}

// GetAnalysesForRun joins the run's files with their cached analyses. The
// Path and RelPath of each analysis are those of the indexed file, so
// byte-identical files at different paths are reported separately.
func (db *DB) GetAnalysesForRun(runID string) ([]FileAnalysis, error) {
	files, err := db.GetFilesForRun(runID)
	if err != nil {
		return nil, err
	}

	var out []FileAnalysis
	for _, f := range files {
		fa, err := db.GetInsight(f.ContentHash)
		if err != nil {
			return nil, err
		}
		if fa == nil {
			continue
		}
		fa.Path = f.Path
		fa.RelPath = f.RelPath
		out = append(out, *fa)
	}
	return out, nil
}

// GetCategoryCounts returns file counts per content type, largest first.
func (db *DB) GetCategoryCounts(runID string) ([]CategoryCount, error) {
	query := `SELECT COALESCE(content_type, 'general'), COUNT(*), AVG(confidence) FROM files`
	var args []any
	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " GROUP BY 1 ORDER BY 2 DESC, 1 ASC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.ContentType, &c.Files, &c.AvgConf); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*FileRecord, error) {
	var f FileRecord
	var runID, relPath, contentType, language sql.NullString
	if err := s.Scan(&f.Path, &runID, &relPath, &f.ContentHash, &f.Size, &contentType, &f.Confidence, &language, &f.SeenAt); err != nil {
		return nil, err
	}
	f.RunID = runID.String
	f.RelPath = relPath.String
	f.ContentType = contentType.String
	f.Language = language.String
	return &f, nil
}

func scanFiles(rows *sql.Rows) ([]FileRecord, error) {
	var files []FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}
