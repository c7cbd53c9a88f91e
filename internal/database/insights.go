package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// GetInsight returns the cached analysis for a content hash, or nil if
// there is none or it was written with another schema version.
func (db *DB) GetInsight(hash string) (*FileAnalysis, error) {
	var version int
	var raw string
	err := db.conn.QueryRow(
		"SELECT schema_version, analysis FROM insights WHERE content_hash = ?", hash,
	).Scan(&version, &raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if version != SchemaVersion {
		return nil, nil
	}

	var fa FileAnalysis
	if err := json.Unmarshal([]byte(raw), &fa); err != nil {
		return nil, fmt.Errorf("decoding insight %s: %w", hash, err)
	}
	return &fa, nil
}

// SaveInsight stores or replaces the analysis for its content hash.
func (db *DB) SaveInsight(fa *FileAnalysis) error {
	if fa.ContentHash == "" {
		return fmt.Errorf("insight has no content hash")
	}
	data, err := json.Marshal(fa)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(
		`INSERT OR REPLACE INTO insights (content_hash, schema_version, analysis, updated_at)
		VALUES (?, ?, ?, datetime('now'))`,
		fa.ContentHash, fa.SchemaVersion, string(data),
	)
	return err
}

// AllInsights returns every current-version analysis keyed by content hash.
func (db *DB) AllInsights() (map[string]FileAnalysis, error) {
	rows, err := db.conn.Query(
		"SELECT content_hash, analysis FROM insights WHERE schema_version = ? ORDER BY content_hash",
		SchemaVersion,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]FileAnalysis)
	for rows.Next() {
		var hash, raw string
		if err := rows.Scan(&hash, &raw); err != nil {
			return nil, err
		}
		var fa FileAnalysis
		if err := json.Unmarshal([]byte(raw), &fa); err != nil {
			return nil, fmt.Errorf("decoding insight %s: %w", hash, err)
		}
		out[hash] = fa
	}
	return out, rows.Err()
}

// ClearInsights deletes every cached analysis and returns how many rows
// were removed.
func (db *DB) ClearInsights() (int64, error) {
	result, err := db.conn.Exec("DELETE FROM insights")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
