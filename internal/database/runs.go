package database

import (
	"database/sql"

	"github.com/google/uuid"
)

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// StartRun records the start of a scan and returns its ID.
func (db *DB) StartRun(root string) (string, error) {
	id := NewRunID()
	_, err := db.conn.Exec("INSERT INTO runs (id, root) VALUES (?, ?)", id, root)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishRun stores the final counters of a run.
func (db *DB) FinishRun(id string, files, analyzed, cacheHits, errors int) error {
	_, err := db.conn.Exec(
		`UPDATE runs SET finished_at = datetime('now'), files = ?, analyzed = ?, cache_hits = ?, errors = ?
		WHERE id = ?`,
		files, analyzed, cacheHits, errors, id,
	)
	return err
}

// GetRun returns a run by ID, or nil if not found.
func (db *DB) GetRun(id string) (*Run, error) {
	var r Run
	err := db.conn.QueryRow(
		`SELECT id, root, started_at, finished_at, files, analyzed, cache_hits, errors
		FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Root, &r.StartedAt, &r.FinishedAt, &r.Files, &r.Analyzed, &r.CacheHits, &r.Errors)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetLatestRun returns the most recently started run, or nil if none exist.
func (db *DB) GetLatestRun() (*Run, error) {
	runs, err := db.GetRuns(1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

// GetRuns returns runs newest first. A limit of 0 returns all.
func (db *DB) GetRuns(limit int) ([]Run, error) {
	query := `SELECT id, root, started_at, finished_at, files, analyzed, cache_hits, errors
		FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Root, &r.StartedAt, &r.FinishedAt, &r.Files, &r.Analyzed, &r.CacheHits, &r.Errors); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
